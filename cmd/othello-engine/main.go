// Command othello-engine speaks the line protocol on stdin/stdout.
package main

import (
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/profile"
	"github.com/rs/zerolog/log"

	"github.com/hailam/othelloplay/internal/book"
	"github.com/hailam/othelloplay/internal/engine"
	"github.com/hailam/othelloplay/internal/logging"
	"github.com/hailam/othelloplay/internal/protocol"
	"github.com/hailam/othelloplay/internal/storage"
)

var (
	hashMB     = flag.Int("hash", engine.DefaultConfig().HashMB, "transposition table size in MB")
	tierName   = flag.String("tier", engine.TierFull.String(), "engine tier: random, greedy, shallow or full")
	bookFlag   = flag.String("book", "default", "opening book: default, none or a file path")
	bookVaried = flag.Bool("bookvaried", false, "pick book moves at random by weight instead of the heaviest")
	history    = flag.String("history", engine.HistoryAge.String(), "history policy between searches: age, reset or keep")
	plyGate    = flag.Int("plygate", engine.DefaultPlyGate, "plies that use killer and history ordering")
	dbDir      = flag.String("db", "", "settings database directory (empty for the platform default, none to disable)")
	cpuprofile = flag.String("cpuprofile", "", "write a CPU profile to this directory")
	logLevel   = flag.String("loglevel", "info", "log level")
)

func main() {
	flag.Parse()

	if err := logging.Setup(os.Stderr, *logLevel, true); err != nil {
		log.Fatal().Err(err).Msg("logging")
	}

	if *cpuprofile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuprofile), profile.Quiet).Stop()
	}

	store := openStore(*dbDir)
	if store != nil {
		defer store.Close()
	}

	settings := storage.DefaultSettings()
	if store != nil {
		if s, err := store.LoadSettings(); err != nil {
			log.Warn().Err(err).Msg("settings-load-failed")
		} else {
			settings = s
		}
	}
	if err := applyFlags(settings); err != nil {
		log.Fatal().Err(err).Msg("invalid flags")
	}

	p := protocol.New(settings.Engine, settings.Tier, os.Stdin, os.Stdout)
	if store != nil {
		p.SetStore(store)
		settings.LastUsed = time.Now()
		if err := store.SaveSettings(settings); err != nil {
			log.Warn().Err(err).Msg("settings-save-failed")
		}
	}
	if settings.UseBook {
		if b := loadBook(settings.BookPath); b != nil {
			b.Varied = *bookVaried
			p.SetBook(b)
		}
	}

	if err := p.Run(); err != nil {
		log.Error().Err(err).Msg("protocol")
		os.Exit(1)
	}
}

// applyFlags overrides the stored settings with the flags given on the
// command line.
func applyFlags(s *storage.Settings) error {
	var err error
	flag.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "hash":
			s.Engine.HashMB = *hashMB
		case "tier":
			s.Tier, err = engine.ParseTier(*tierName)
		case "history":
			s.Engine.HistoryPolicy, err = engine.ParseHistoryPolicy(*history)
		case "plygate":
			s.Engine.PlyGate = *plyGate
		case "book":
			switch *bookFlag {
			case "none":
				s.UseBook = false
				s.BookPath = ""
			case "default":
				s.UseBook = true
				s.BookPath = ""
			default:
				s.UseBook = true
				s.BookPath = *bookFlag
			}
		}
	})
	return err
}

func openStore(dir string) *storage.Storage {
	var (
		store *storage.Storage
		err   error
	)
	switch dir {
	case "none":
		return nil
	case "":
		store, err = storage.NewStorage()
	default:
		store, err = storage.Open(dir)
	}
	if err != nil {
		log.Warn().Err(err).Msg("storage-unavailable")
		return nil
	}

	if first, err := store.IsFirstLaunch(); err == nil && first {
		log.Info().Msg("first-launch")
		if err := store.MarkFirstLaunchComplete(); err != nil {
			log.Warn().Err(err).Msg("first-launch-mark-failed")
		}
	}
	return store
}

// loadBook loads path, falling back to the book directory for bare names.
// An empty path selects the built-in book.
func loadBook(path string) *book.Book {
	if path == "" {
		return book.Default()
	}
	if _, err := os.Stat(path); err != nil && !filepath.IsAbs(path) {
		if dir, derr := storage.GetBookDir(); derr == nil {
			path = filepath.Join(dir, path)
		}
	}
	b, err := book.Load(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("book-load-failed")
		return nil
	}
	log.Info().Str("path", path).Int("positions", b.Size()).Msg("book-loaded")
	return b
}
