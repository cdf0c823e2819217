package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netview/internal/config"
	"netview/internal/server"
	"netview/internal/store/sqlite"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting netview reference backend...")

	cfg, loaded, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if loaded != "" {
		log.Printf("Config loaded from %s", loaded)
	}
	if *addr == "" {
		*addr = cfg.Listen
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.Path
	}

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()
	log.Printf("Database opened: %s", *dbPath)

	hub := server.NewHub()
	go hub.Run()

	srv := &http.Server{
		Addr:    *addr,
		Handler: server.New(store, hub).Router(),
	}

	go func() {
		log.Printf("Listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}
