// Copyright 2025 The ShelfServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the shelfserve catalog search server and REPL.

shelfserve keeps an in-memory index over a catalog of titled works and
answers two kinds of queries: typeahead suggestions drawn from titles,
authors and subjects, and full searches that return whole records ranked
by how the query matched. Submitted searches feed a popularity tracker that
reorders suggestions.

# Usage

Serve a catalog over msgpack IPC on stdin/stdout:

	shelfserve serve --catalog books.json

Reload the catalog whenever the file changes and expose Prometheus metrics:

	shelfserve serve --catalog books.msgpack.zst --watch --metrics :9464

Explore a catalog interactively:

	shelfserve repl --catalog books.json

Catalog files are JSON or msgpack arrays of records, optionally zstd
compressed:

	[{"id": "2", "title": "Pride and Prejudice", "author": "Jane Austen", "subjects": ["Fiction"]}]

# Configuration

Config is read from --config or [UserConfigDir]/shelfserve/config.toml, which
is created with defaults when missing. Command line flags override it.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/shelfserve/internal/cli"
	"github.com/bastiangx/shelfserve/internal/logger"
	"github.com/bastiangx/shelfserve/pkg/catalog"
	"github.com/bastiangx/shelfserve/pkg/config"
	"github.com/bastiangx/shelfserve/pkg/engine"
	"github.com/bastiangx/shelfserve/pkg/metrics"
	"github.com/bastiangx/shelfserve/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	ucli "github.com/urfave/cli/v3"
)

const (
	Version = "0.1.0-beta"
	AppName = "shelfserve"
	gh      = "https://github.com/bastiangx/shelfserve"
)

// sigHandler cancels the returned context on the first interrupt and exits
// on the second.
func sigHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx, cancel
}

func main() {
	ctx, cancel := sigHandler()
	defer cancel()

	app := &ucli.Command{
		Name:  AppName,
		Usage: "Catalog search and typeahead over msgpack IPC",
		Flags: []ucli.Flag{
			&ucli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
			},
			&ucli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, c *ucli.Command) (context.Context, error) {
			if c.Bool("debug") {
				log.SetLevel(log.DebugLevel)
				log.SetReportTimestamp(true)
			} else {
				log.SetLevel(log.WarnLevel)
			}
			return ctx, nil
		},
		Commands: []*ucli.Command{
			serveCommand(),
			replCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func catalogFlags() []ucli.Flag {
	return []ucli.Flag{
		&ucli.StringFlag{
			Name:  "catalog",
			Usage: "Catalog file to index (.json, .msgpack, optionally .zst)",
		},
	}
}

// loadConfig resolves the config file and applies the catalog flag.
func loadConfig(c *ucli.Command) (*config.Config, error) {
	cfg, configPath, err := config.LoadConfigWithPriority(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(configPath))

	if path := c.String("catalog"); path != "" {
		cfg.Catalog.Path = path
	}
	return cfg, nil
}

// setup builds the engine and indexes the catalog if one is configured.
func setup(cfg *config.Config, opts ...engine.Option) (*engine.Engine, error) {
	eng := engine.New(append([]engine.Option{engine.WithConfig(cfg)}, opts...)...)
	if cfg.Catalog.Path == "" {
		log.Warn("No catalog specified, starting with an empty index...")
		return eng, nil
	}

	records, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	if err := eng.BuildIndex(records); err != nil {
		return nil, fmt.Errorf("indexing %s: %w", cfg.Catalog.Path, err)
	}
	log.Debugf("Indexed %d records from %s", len(records), cfg.Catalog.Path)
	return eng, nil
}

func serveCommand() *ucli.Command {
	return &ucli.Command{
		Name:  "serve",
		Usage: "Serve msgpack requests on stdin/stdout",
		Flags: append(catalogFlags(),
			&ucli.BoolFlag{
				Name:  "watch",
				Usage: "Rebuild the index when the catalog file changes",
			},
			&ucli.StringFlag{
				Name:  "metrics",
				Usage: "Expose Prometheus metrics on this address",
			},
		),
		Action: func(ctx context.Context, c *ucli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			var (
				reg  *prometheus.Registry
				opts []engine.Option
			)
			addr := c.String("metrics")
			if addr == "" && cfg.Server.EnableMetrics {
				addr = cfg.Server.MetricsAddr
			}
			if addr != "" {
				reg = prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector())
				opts = append(opts, engine.WithMetrics(metrics.New(reg)))
			}

			eng, err := setup(cfg, opts...)
			if err != nil {
				return err
			}

			if reg != nil {
				go func() {
					if err := metrics.Serve(ctx, addr, reg); err != nil {
						log.Errorf("Metrics server stopped: %v", err)
					}
				}()
				log.Debugf("Serving metrics on %s", addr)
			}

			if cfg.Catalog.Path != "" && (c.Bool("watch") || cfg.Catalog.Watch) {
				w := catalog.NewWatcher(cfg.Catalog.Path, eng.BuildIndex)
				go func() {
					if err := w.Run(ctx); err != nil {
						log.Errorf("Catalog watcher stopped: %v", err)
					}
				}()
			}

			showStartupInfo(cfg.Catalog.Path, eng.Stats().IndexedRecordCount)
			return server.NewServer(eng, cfg, os.Stdin, os.Stdout).Start()
		},
	}
}

func replCommand() *ucli.Command {
	return &ucli.Command{
		Name:  "repl",
		Usage: "Interactive suggestions and search for debugging",
		Flags: append(catalogFlags(),
			&ucli.IntFlag{
				Name:  "limit",
				Usage: "Number of suggestions to show (0 uses the config)",
			},
		),
		Action: func(ctx context.Context, c *ucli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			eng, err := setup(cfg)
			if err != nil {
				return err
			}
			log.SetReportTimestamp(false)
			h := cli.NewInputHandler(eng, os.Stdin, os.Stdout, c.Int("limit"), cfg.Server.MaxQueryLen)
			return h.Start()
		},
	}
}

func versionCommand() *ucli.Command {
	return &ucli.Command{
		Name:  "version",
		Usage: "Show current version",
		Action: func(ctx context.Context, c *ucli.Command) error {
			lg := logger.NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter)

			styles := log.DefaultStyles()
			styles.Values["version"] = lipgloss.NewStyle().Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
				Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
			styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
			lg.SetStyles(styles)

			lg.Print("")
			lg.Print("[ ShelfServe ] Catalog search and typeahead")
			lg.Print("", "version", Version)
			lg.Print("")
			lg.Print("Github Repo", "gh", gh)
			return nil
		},
	}
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(catalogPath string, records int) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "============")
	fmt.Fprintln(os.Stderr, " ShelfServe ")
	fmt.Fprintln(os.Stderr, "============")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("catalog: ( %s ) %d records", catalogPath, records)
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "============")

	log.SetLevel(currentLevel)
}
