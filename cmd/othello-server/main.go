// Command othello-server exposes engine analysis over HTTP and WebSocket.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/hailam/othelloplay/internal/api"
	"github.com/hailam/othelloplay/internal/book"
	"github.com/hailam/othelloplay/internal/engine"
	"github.com/hailam/othelloplay/internal/logging"
	"github.com/hailam/othelloplay/internal/storage"
)

const version = "0.1.0"

func main() {
	defaults := api.DefaultServerConfig()

	host := flag.String("host", defaults.Host, "host to bind to")
	port := flag.Int("port", defaults.Port, "port to listen on")
	workers := flag.Int("workers", defaults.MaxWorkers, "maximum concurrent analyses")
	hashMB := flag.Int("hash", defaults.Engine.HashMB, "transposition table size per engine in MB")
	history := flag.String("history", defaults.Engine.HistoryPolicy.String(), "history policy between searches: age, reset or keep")
	bookFlag := flag.String("book", "default", "opening book: default, none or a file path")
	dbDir := flag.String("db", "none", "analysis cache directory (empty for the platform default, none to disable)")
	logLevel := flag.String("loglevel", "info", "log level")
	jsonLogs := flag.Bool("jsonlogs", false, "write JSON log lines instead of console output")
	flag.Parse()

	if err := logging.Setup(os.Stderr, *logLevel, !*jsonLogs); err != nil {
		log.Fatal().Err(err).Msg("logging")
	}

	hp, err := engine.ParseHistoryPolicy(*history)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -history")
	}

	cfg := defaults
	cfg.Host = *host
	cfg.Port = *port
	cfg.MaxWorkers = *workers
	cfg.Engine.HashMB = *hashMB
	cfg.Engine.HistoryPolicy = hp

	srv := api.NewServer(cfg, version)

	switch *bookFlag {
	case "none":
	case "default":
		srv.Pool().SetBook(book.Default())
	default:
		b, err := book.Load(*bookFlag)
		if err != nil {
			log.Fatal().Err(err).Str("path", *bookFlag).Msg("book-load-failed")
		}
		srv.Pool().SetBook(b)
	}

	if *dbDir != "none" {
		var store *storage.Storage
		if *dbDir == "" {
			store, err = storage.NewStorage()
		} else {
			store, err = storage.Open(*dbDir)
		}
		if err != nil {
			log.Fatal().Err(err).Msg("storage")
		}
		defer store.Close()
		srv.Pool().SetStore(store)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server")
	}
}
