package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tileworld/archive"
	"tileworld/config"
	"tileworld/journal"
	"tileworld/relay"
	"tileworld/server"
	"tileworld/world"
)

// tileworld: authoritative tile-world server. Serves the game socket at
// /ws/game, the admin API under /api and an optional static web client at /.
func main() {
	var cfgPath, addr, logPath string
	flag.StringVar(&cfgPath, "config", "tileworld.yaml", "config file (missing file = defaults)")
	flag.StringVar(&addr, "addr", "", "listen address, overrides server.addr, e.g. :8080")
	flag.StringVar(&logPath, "log", "", "log file, overrides server.log_file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logPath != "" {
		cfg.Server.LogFile = logPath
	}

	if err := server.InitLogger(cfg.Server.LogFile, cfg.Server.LogLevel); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	w := world.NewWithTerrain(cfg.World.Width, cfg.World.Height, cfg.World.Terrain)
	game := server.NewGame(w, server.Options{
		ViewRadius:   cfg.Sim.ViewRadius,
		Spawn:        cfg.World.Spawn,
		EventBuffer:  cfg.Hub.EventBuffer,
		UpdateBuffer: cfg.Hub.UpdateBuffer,
		EventLogMax:  cfg.Admin.EventLogMax,
	})
	seeded := game.SeedNPCs(cfg.World.InitialNPCs)
	server.Log.Infof("world %dx%d ready, %d NPCs", cfg.World.Width, cfg.World.Height, seeded)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var bg sync.WaitGroup

	opts := []server.ServerOpt{
		server.WithLoopbackOnly(cfg.Admin.LoopbackOnly),
		server.WithStaticDir(cfg.Server.StaticDir),
		server.WithHistoryLimit(cfg.Sim.HistoryLimit),
	}

	if cfg.Journal.Enabled {
		jw := journal.NewWriter(cfg.Journal.Dir, "events")
		sub := game.SubscribeEvents()
		bg.Add(1)
		go func() {
			defer bg.Done()
			jw.Run(ctx, sub, server.Log)
		}()
		server.Log.Infof("journal enabled: dir=%s", cfg.Journal.Dir)
	}

	if cfg.Archive.Enabled {
		arc, err := archive.Open(cfg.Archive.Path, server.Log)
		if err != nil {
			server.Log.Fatalf("archive: %v", err)
		}
		defer arc.Close()
		sub := game.SubscribeEvents()
		bg.Add(1)
		go func() {
			defer bg.Done()
			arc.Run(ctx, sub)
		}()
		opts = append(opts, server.WithArchive(arc))
		server.Log.Infof("archive enabled: path=%s", cfg.Archive.Path)
	}

	if cfg.Relay.Enabled {
		rl, err := relay.New(
			relay.WithHost(cfg.Relay.Host),
			relay.WithPort(cfg.Relay.Port),
			relay.WithSubject(cfg.Relay.Subject),
			relay.WithLogger(server.Log),
		)
		if err != nil {
			server.Log.Fatalf("relay: %v", err)
		}
		if err := rl.Start(); err != nil {
			server.Log.Fatalf("relay: %v", err)
		}
		sub := game.SubscribeEvents()
		bg.Add(1)
		go func() {
			defer bg.Done()
			rl.Run(ctx, sub)
		}()
	}

	game.StartTicker(ctx, cfg.Sim.TickInterval())

	s := server.NewServer(game, opts...)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: s.Routes()}

	go func() {
		server.Log.Infof("tileworld listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		server.Log.Warnf("http shutdown: %v", err)
	}
	s.Conns().CloseAll()
	cancel()
	game.Close()
	bg.Wait()
}
