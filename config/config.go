// Package config loads the server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tileworld/world"
)

type Config struct {
	Server  Server  `yaml:"server"`
	World   World   `yaml:"world"`
	Sim     Sim     `yaml:"sim"`
	Hub     Hub     `yaml:"hub"`
	Admin   Admin   `yaml:"admin"`
	Journal Journal `yaml:"journal"`
	Archive Archive `yaml:"archive"`
	Relay   Relay   `yaml:"relay"`
}

type Server struct {
	Addr     string `yaml:"addr"`
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`
	// StaticDir is served at / when non-empty.
	StaticDir string `yaml:"static_dir"`
}

type World struct {
	Width       int                 `yaml:"width"`
	Height      int                 `yaml:"height"`
	Terrain     world.TerrainConfig `yaml:",inline"`
	InitialNPCs int                 `yaml:"initial_npcs"`
	Spawn       world.Position      `yaml:"spawn"`
}

type Sim struct {
	TickIntervalMs int `yaml:"tick_interval_ms"`
	ViewRadius     int `yaml:"view_radius"`
	HistoryLimit   int `yaml:"history_limit"`
}

// TickInterval returns TickIntervalMs as a duration.
func (s Sim) TickInterval() time.Duration {
	return time.Duration(s.TickIntervalMs) * time.Millisecond
}

type Hub struct {
	EventBuffer  int `yaml:"event_buffer"`
	UpdateBuffer int `yaml:"update_buffer"`
}

type Admin struct {
	EventLogMax  int  `yaml:"event_log_max"`
	LoopbackOnly bool `yaml:"loopback_only"`
}

type Journal struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type Archive struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Relay struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Subject string `yaml:"subject"`
}

// Defaults mirrors a fresh 50x50 world ticking once per second.
func Defaults() Config {
	return Config{
		Server: Server{
			Addr:     ":8080",
			LogFile:  "tileworld.log",
			LogLevel: "info",
		},
		World: World{
			Width:       50,
			Height:      50,
			Terrain:     world.DefaultTerrain(),
			InitialNPCs: 5,
			Spawn:       world.Pos(10, 10),
		},
		Sim: Sim{
			TickIntervalMs: 1000,
			ViewRadius:     15,
			HistoryLimit:   50,
		},
		Hub: Hub{
			EventBuffer:  1000,
			UpdateBuffer: 100,
		},
		Admin: Admin{
			EventLogMax: 1000,
		},
		Journal: Journal{
			Dir: "./data/journal",
		},
		Archive: Archive{
			Path: "./data/events.db",
		},
		Relay: Relay{
			Host:    "127.0.0.1",
			Port:    4222,
			Subject: "tileworld.events",
		},
	}
}

// Load reads path over the defaults. A missing file yields Defaults().
func Load(path string) (Config, error) {
	c := Defaults()
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.World.Width <= 0 || c.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world: size must be positive, got %dx%d", c.World.Width, c.World.Height))
	}
	if c.World.Terrain.Border < 0 || c.World.Terrain.LakeRadiusSq < 0 {
		errs = append(errs, errors.New("world: border and lake_radius_sq must not be negative"))
	}
	if c.World.InitialNPCs < 0 {
		errs = append(errs, errors.New("world: initial_npcs must not be negative"))
	}
	if c.Sim.TickIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("sim: tick_interval_ms must be positive, got %d", c.Sim.TickIntervalMs))
	}
	if span := max(c.World.Width, c.World.Height); c.Sim.ViewRadius < 0 || c.Sim.ViewRadius > span {
		errs = append(errs, fmt.Errorf("sim: view_radius must be in [0, %d], got %d", span, c.Sim.ViewRadius))
	}
	if c.Hub.EventBuffer <= 0 || c.Hub.UpdateBuffer <= 0 {
		errs = append(errs, errors.New("hub: buffers must be positive"))
	}
	if c.Admin.EventLogMax <= 0 {
		errs = append(errs, errors.New("admin: event_log_max must be positive"))
	}
	if c.Journal.Enabled && c.Journal.Dir == "" {
		errs = append(errs, errors.New("journal: dir required when enabled"))
	}
	if c.Archive.Enabled && c.Archive.Path == "" {
		errs = append(errs, errors.New("archive: path required when enabled"))
	}
	return errors.Join(errs...)
}
