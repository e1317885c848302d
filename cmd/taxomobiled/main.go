package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lherron/taxomobile/internal/cli"
)

func main() {
	addr := flag.String("addr", os.Getenv("TAXOD_ADDR"), "Listen address (default 127.0.0.1:7272)")
	token := flag.String("token", os.Getenv("TAXOD_TOKEN"), "Bearer token for /v1 routes")
	dbPath := flag.String("db", "", "Catalog path override (defaults to config)")
	dataDir := flag.String("data", "", "Data directory override (defaults to config)")
	catalog := flag.Bool("catalog", os.Getenv("TAXOD_CATALOG") == "1", "Serve records from the catalog")
	watchDir := flag.Bool("watch", os.Getenv("TAXOD_WATCH") == "1", "Rebuild when the data directory changes")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := cli.DaemonOptions{
		Addr:    *addr,
		Token:   *token,
		DBPath:  *dbPath,
		DataDir: *dataDir,
		Catalog: *catalog,
		Watch:   *watchDir,
	}
	if err := cli.ServeDaemon(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
