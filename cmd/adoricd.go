package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/connection"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/server"
)

func main() {
	// Command line flags
	var (
		addr       = flag.String("addr", ":8080", "Listen address")
		configPath = flag.String("config", "", "Path to a YAML config file")
		backend    = flag.String("backend", server.BackendMemory, "Store backend: memory or mongo")
		mongoURL   = flag.String("mongo-url", "", "MongoDB connection string for the mongo backend")
		dataFile   = flag.String("data-file", "adoric_data.adrc", "Snapshot file for the memory backend")
		autoSave   = flag.Duration("auto-save", 0, "Background snapshot interval (e.g., 5m, 30s). Set to 0 to disable.")
		showHelp   = flag.Bool("help", false, "Show help message")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nadoricd serves ORM style collections over a document store.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                              # In-memory store with defaults\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -addr :9090 -auto-save 5m                    # Custom port, snapshot every 5 minutes\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -backend mongo -mongo-url mongodb://db/app   # Back onto a MongoDB deployment\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -config /etc/adoric/config.yaml              # Settings from a file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nSafety Note:\n")
		fmt.Fprintf(os.Stderr, "  With the memory backend and no -auto-save, data is only saved on graceful shutdown.\n")
		fmt.Fprintf(os.Stderr, "  Enable background snapshots for better data safety in production.\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Layer the configuration: defaults, config file, environment, flags.
	cfg := server.DefaultConfig()
	if *configPath != "" {
		loaded, err := server.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Could not load config: %v", err)
		}
		cfg = loaded
		log.Printf("INFO: Loaded config from %s", *configPath)
	}
	cfg.ApplyEnv()

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "backend":
			cfg.Backend = *backend
		case "data-file":
			cfg.DataFile = *dataFile
		case "auto-save":
			cfg.AutoSave = server.Duration(*autoSave)
		case "mongo-url":
			parsed, err := connection.ParseURL(*mongoURL)
			if err != nil {
				log.Fatalf("Invalid -mongo-url: %v", err)
			}
			cfg.Mongo = parsed
		}
	})

	if cfg.Backend == server.BackendMemory {
		if cfg.AutoSave > 0 {
			log.Printf("INFO: Background snapshots enabled: every %v", time.Duration(cfg.AutoSave))
		} else {
			log.Printf("WARN: Background snapshots disabled - data only saved on graceful shutdown")
		}
	}

	// Create the server with the layered config
	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Could not create server: %v", err)
	}
	srv.Init()

	// Create HTTP server
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Router(),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting adoricd server on %s", cfg.Addr)
		log.Printf("API endpoints available at http://localhost%s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("ERROR: Server forced to shutdown: %v", err)
	}

	// Stop workers and write the final snapshot after requests drained
	srv.Close()

	log.Println("Server exited")
}
