package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"netview/internal/config"
	"netview/internal/event"
	"netview/internal/graph"
	"netview/internal/layout"
	"netview/internal/position"
	"netview/internal/source"
	"netview/internal/topology"
	"netview/internal/transport"
	"netview/internal/watcher"
)

// logRenderer is the render sink for headless operation: it logs each
// topology snapshot instead of drawing it.
type logRenderer struct{}

func (logRenderer) Render(top graph.Topology) {
	online := 0
	for _, n := range top.Nodes {
		if n.Online {
			online++
		}
	}
	log.Printf("rendered topology: %d nodes (%d online), %d edges", len(top.Nodes), online, len(top.Edges))
}

func main() {
	configPath := flag.String("config", "", "config file path (default: $NETVIEW_CONFIG, ./netview.yaml)")
	server := flag.String("server", "", "backend base URL (overrides config)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		cfg    *config.Config
		loaded string
		err    error
	)
	if *configPath != "" {
		cfg, loaded, err = config.LoadFromPath(*configPath)
	} else {
		cfg, loaded, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *server != "" {
		cfg.Server = *server
	}
	if loaded != "" {
		log.Printf("Config loaded from %s", loaded)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := event.NewBus()

	wsURL := cfg.WebsocketURL
	if wsURL == "" {
		wsURL = transport.DeriveURL(cfg.Server)
	}
	tp := transport.New(transport.Config{
		URL:          wsURL,
		InitialDelay: cfg.InitialDelay(),
		MaxDelay:     cfg.MaxDelay(),
	}, bus)
	tp.Connect(ctx)
	defer tp.Close()

	ctrl := topology.New(
		source.NewClient(cfg.Server),
		position.NewClient(cfg.Server),
		bus,
		logRenderer{},
		topology.Options{
			Interval: cfg.RefreshInterval(),
			Layout: layout.Config{
				Width:  cfg.Layout.Width,
				Height: cfg.Layout.Height,
			},
		},
	)
	ctrl.Start(ctx)
	defer ctrl.Close()

	if loaded != "" {
		w := watcher.New(loaded, func() {
			reloaded, _, err := config.LoadFromPath(loaded)
			if err != nil {
				log.Printf("config reload: %v", err)
				return
			}
			ctrl.SetLayout(layout.Config{
				Width:  reloaded.Layout.Width,
				Height: reloaded.Layout.Height,
			})
			ctrl.Relayout(ctx)
		})
		go func() {
			if err := w.Watch(ctx); err != nil && ctx.Err() == nil {
				log.Printf("config watcher stopped: %v", err)
			}
		}()
	}

	log.Printf("netview running against %s (events: %s)", cfg.Server, wsURL)
	<-ctx.Done()
	log.Println("Shutting down...")
}
