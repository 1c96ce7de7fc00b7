// Command ckserver runs the checkers REST and WebSocket API server.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"github.com/yourusername/ckengine/internal/config"
	"github.com/yourusername/ckengine/internal/logging"
	"github.com/yourusername/ckengine/pkg/api"
	"github.com/yourusername/ckengine/pkg/engine"
	"github.com/yourusername/ckengine/pkg/external"
	"github.com/yourusername/ckengine/pkg/session"
)

const version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "ckserver",
		Usage:   "Checkers API server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "file with CK_* settings",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "host to bind to (use 0.0.0.0 for all interfaces)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "port to listen on",
			},
			&cli.IntFlag{
				Name:    "depth",
				Aliases: []string{"d"},
				Usage:   "CPU search depth",
			},
			&cli.StringFlag{
				Name:  "cpu-side",
				Usage: "side the CPU plays in new games: B, R or none",
			},
			&cli.StringFlag{
				Name:  "external",
				Usage: "TCP address for the external player protocol, e.g. :1234",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "human readable log output",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("ckserver failed")
	}
}

// loadConfig applies command line flags on top of the environment.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("host") {
		cfg.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("depth") {
		cfg.Depth = c.Int("depth")
	}
	if c.IsSet("cpu-side") {
		cfg.CPUSide = c.String("cpu-side")
		if cfg.CPUSide == "none" {
			cfg.CPUSide = ""
		}
	}
	if c.IsSet("external") {
		cfg.ExternalAddr = c.String("external")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("pretty") {
		cfg.LogPretty = c.Bool("pretty")
	}
	return cfg, cfg.Validate()
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	logging.Configure(cfg.LogLevel, cfg.LogPretty)

	eng := engine.NewEngine(engine.EngineOptions{
		Depth:     cfg.Depth,
		CacheSize: cfg.CacheSize,
	})
	store := session.NewStore(eng, cfg.MaxSessions)

	defaults := session.Settings{Depth: cfg.Depth}
	if cfg.CPUSide != "" {
		side, err := engine.ParseSide(cfg.CPUSide)
		if err != nil {
			return err
		}
		defaults.CPU = true
		defaults.CPUSide = side
	}

	server := api.NewServer(store, api.ServerConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MaxFastWorkers:  cfg.MaxFastWorkers,
		MaxSlowWorkers:  cfg.MaxSlowWorkers,
	}, version)
	server.Handlers().SetDefaults(defaults)

	if cfg.ExternalAddr != "" {
		ext := external.NewServer(eng, external.ServerOptions{
			Addr:  cfg.ExternalAddr,
			Depth: eng.Depth(),
		})
		if err := ext.Start(); err != nil {
			return err
		}
		defer ext.Stop()
	}

	log.Info().
		Str("version", version).
		Str("addr", cfg.Addr()).
		Int("depth", eng.Depth()).
		Int("cache_size", cfg.CacheSize).
		Str("cpu_side", cfg.CPUSide).
		Msg("starting checkers server")

	return server.ListenAndServeWithGracefulShutdown()
}
