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

	"gopkg.in/yaml.v3"

	oceans "github.com/calmeoceans/oceans-tracers"
	"github.com/calmeoceans/oceans-tracers/internal/notify"
	"github.com/calmeoceans/oceans-tracers/internal/storage"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "path to config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "oceans-web: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if cfg.Server.AdminPassword == "" {
		fmt.Fprintln(os.Stderr, "oceans-web: server.admin_password is not set; admin endpoints are disabled")
	}
	if cfg.Server.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "oceans-web: server.jwt_secret is not set; admin endpoints are disabled")
	}

	store, err := oceans.Open(oceans.StoreConfig{
		DatabasePath: cfg.Database.Path,
		FallbackPath: cfg.Database.FallbackPath,
		SeedDefaults: cfg.Database.SeedDefaults,
		Notifier:     notify.NewEmailNotifier(cfg.Notifications.Enabled, cfg.Notifications.Recipient),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "oceans-web: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Printf("oceans-web: store open (%s backend)", store.BackendKind())

	mux := newRouter(store, cfg)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      logging(recovery(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("oceans-web: listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("oceans-web: %v", err)
		}
	}()

	<-done
	log.Println("oceans-web: shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("oceans-web: shutdown error: %v", err)
	}
	log.Println("oceans-web: stopped")
}

func loadConfig(path string) (*storage.Config, error) {
	cfg := storage.DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
