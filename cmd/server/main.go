package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/matthewbaird/vegalite/internal/server"
	"github.com/matthewbaird/vegalite/internal/stats/sqlstats"

	_ "modernc.org/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("vlc-server: ")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := server.Config{
		Port:   8080,
		Logger: log.Default(),
	}
	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			cfg.Port = v
		}
	}

	// Field statistics for URL data, summarized once at startup.
	if dsn := os.Getenv("STATS_DSN"); dsn != "" {
		table := os.Getenv("STATS_TABLE")
		if table == "" {
			log.Fatalf("STATS_TABLE is required with STATS_DSN")
		}
		summary, err := sqlstats.Open(ctx, "sqlite", dsn, table)
		if err != nil {
			log.Fatalf("loading field statistics: %v", err)
		}
		cfg.Stats = summary
		log.Printf("loaded statistics for %d fields of %s", len(summary), table)
	}

	if err := server.Run(ctx, cfg); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
