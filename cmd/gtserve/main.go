// Command gtserve serves the gtpath run archive over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/bknight1/gtpath/internal/api"
	"github.com/bknight1/gtpath/internal/persistence"
)

func main() {
	portFlag := pflag.IntP("port", "p", 8791, "HTTP listen port")
	dbFlag := pflag.StringP("db", "d", "gtpath.db", "Path to the archive database")
	pflag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env")
	}

	dbPath := *dbFlag
	if env := os.Getenv("GTPATH_DB"); env != "" && !pflag.Lookup("db").Changed {
		dbPath = env
	}

	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	count, err := db.RunCount()
	if err != nil {
		slog.Error("failed to query archive", "error", err)
		os.Exit(1)
	}
	slog.Info("archive opened", "path", dbPath, "runs", count)

	server := &api.Server{DB: db, Port: *portFlag}
	server.Start()

	fmt.Printf("Archive API: http://localhost:%d/api/v1/status\n", *portFlag)
	fmt.Println("Serving... (Ctrl+C to stop)")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)
	fmt.Println("Archive server stopped.")
}
