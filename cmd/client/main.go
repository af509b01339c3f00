package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tileworld/client"
	"tileworld/logging"
	"tileworld/protocol"
)

type disconnected struct{ err error }

// Terminal client: connects to /ws/game, logs in and renders each viewport.
func main() {
	var addr, name, logPath string
	flag.StringVar(&addr, "addr", "ws://localhost:8080/ws/game", "game socket url")
	flag.StringVar(&name, "name", "wanderer", "player name")
	flag.StringVar(&logPath, "log", "client.log", "log file")
	flag.Parse()

	log, err := logging.New(logPath, "info")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(addr, name, log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(addr, name string, log *zap.SugaredLogger) error {
	ws, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer ws.Close()

	login, err := protocol.Encode(protocol.Login{Name: name})
	if err != nil {
		return err
	}
	if err := ws.WriteMessage(websocket.TextMessage, login); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	r := client.NewRenderer(screen)
	r.Message("connecting to " + addr + " ...")

	go func() {
		for {
			_, raw, err := ws.ReadMessage()
			if err != nil {
				_ = screen.PostEvent(tcell.NewEventInterrupt(disconnected{err: err}))
				return
			}
			msg, err := protocol.DecodeServerMessage(raw)
			if err != nil {
				log.Warnf("bad frame: %v", err)
				continue
			}
			_ = screen.PostEvent(tcell.NewEventInterrupt(msg))
		}
	}()

	var (
		status = "WASD/hjkl/arrows to move, q to quit"
		last   protocol.ServerMessage
	)
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			screen.Sync()
			if last.IsUpdate() {
				r.Draw(*last.Viewport, status)
			}
		case *tcell.EventKey:
			if client.Quits(ev.Key(), ev.Rune()) {
				return nil
			}
			mv, ok := client.MoveForKey(ev.Key(), ev.Rune())
			if !ok {
				continue
			}
			b, err := protocol.Encode(mv)
			if err != nil {
				return err
			}
			if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return fmt.Errorf("send move: %w", err)
			}
		case *tcell.EventInterrupt:
			switch data := ev.Data().(type) {
			case disconnected:
				return fmt.Errorf("connection lost: %w", data.err)
			case protocol.ServerMessage:
				if data.IsUpdate() {
					last = data
					r.Draw(*data.Viewport, fmt.Sprintf("tick %d  %s", data.Tick, status))
					continue
				}
				if data.Success != nil && !*data.Success {
					log.Warnf("server refused: %s", data.Message)
					return fmt.Errorf("server: %s", data.Message)
				}
				status = data.Message + "  " + status
				log.Infof("server: %s", data.Message)
			}
		}
	}
}
