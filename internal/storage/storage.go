package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"

	"github.com/hailam/othelloplay/internal/engine"
)

// Storage keys
const (
	keySettings    = "settings"
	keyFirstLaunch = "first_launch"
	prefixStats    = "stats/"
	prefixAnalysis = "analysis/"
)

// DefaultAnalysisTTL is how long cached analyses are kept.
const DefaultAnalysisTTL = 7 * 24 * time.Hour

// Settings stores the engine setup between runs.
type Settings struct {
	Engine   engine.Config `json:"engine"`
	Tier     engine.Tier   `json:"tier"`
	BookPath string        `json:"book_path,omitempty"`
	UseBook  bool          `json:"use_book"`
	LastUsed time.Time     `json:"last_used"`
}

// DefaultSettings returns default settings
func DefaultSettings() *Settings {
	return &Settings{
		Engine:   engine.DefaultConfig(),
		Tier:     engine.TierFull,
		UseBook:  true,
		LastUsed: time.Now(),
	}
}

// MatchStats stores results of one tier against another, from the first
// tier's side.
type MatchStats struct {
	GamesPlayed int `json:"games_played"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Draws       int `json:"draws"`
	DiscDiff    int `json:"disc_diff"` // Sum of final disc margins
}

// GameResult represents the result of a completed game
type GameResult struct {
	Tier     engine.Tier
	Opponent engine.Tier
	DiscDiff int // Tier's discs minus opponent's discs
	Duration time.Duration
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db  *badger.DB
	ttl time.Duration
}

// NewStorage opens the database in the platform data directory.
func NewStorage() (*Storage, error) {
	dbDir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Open opens (or creates) a database in dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dir, err)
	}

	return &Storage{db: db, ttl: DefaultAnalysisTTL}, nil
}

// SetAnalysisTTL changes the lifetime of cached analyses. Zero keeps them forever.
func (s *Storage) SetAnalysisTTL(ttl time.Duration) {
	s.ttl = ttl
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// IsFirstLaunch returns true if this is the first launch
func (s *Storage) IsFirstLaunch() (bool, error) {
	firstLaunch := true

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyFirstLaunch))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		firstLaunch = false
		return nil
	})

	return firstLaunch, err
}

// MarkFirstLaunchComplete marks that first launch setup is complete
func (s *Storage) MarkFirstLaunchComplete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyFirstLaunch), []byte("done"))
	})
}

func (s *Storage) putJSON(key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// getJSON decodes key into v. It reports false when the key is absent.
func (s *Storage) getJSON(key string, v any) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	return found, err
}

// SaveSettings saves settings
func (s *Storage) SaveSettings(settings *Settings) error {
	settings.LastUsed = time.Now()
	return s.putJSON(keySettings, settings, 0)
}

// LoadSettings loads settings, returns defaults if not found
func (s *Storage) LoadSettings() (*Settings, error) {
	settings := DefaultSettings()
	_, err := s.getJSON(keySettings, settings)
	return settings, err
}

func statsKey(tier, opponent engine.Tier) string {
	return fmt.Sprintf("%s%s/%s", prefixStats, tier, opponent)
}

// LoadStats loads the stats of tier against opponent, empty if not found
func (s *Storage) LoadStats(tier, opponent engine.Tier) (*MatchStats, error) {
	stats := &MatchStats{}
	_, err := s.getJSON(statsKey(tier, opponent), stats)
	return stats, err
}

// RecordGame records a completed game for both sides.
func (s *Storage) RecordGame(result GameResult) error {
	if err := s.recordSide(result.Tier, result.Opponent, result.DiscDiff); err != nil {
		return err
	}
	return s.recordSide(result.Opponent, result.Tier, -result.DiscDiff)
}

func (s *Storage) recordSide(tier, opponent engine.Tier, diff int) error {
	stats, err := s.LoadStats(tier, opponent)
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.DiscDiff += diff
	switch {
	case diff > 0:
		stats.Wins++
	case diff < 0:
		stats.Losses++
	default:
		stats.Draws++
	}

	return s.putJSON(statsKey(tier, opponent), stats, 0)
}

// GetWinRate returns the win rate as a percentage (0-100), draws counting half.
func (s *MatchStats) GetWinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return (float64(s.Wins) + float64(s.Draws)/2) / float64(s.GamesPlayed) * 100
}

// AnalysisKey identifies a cached analysis. Two requests with the same key
// are answered by the same search.
func AnalysisKey(tier engine.Tier, req engine.Request) string {
	limits := engine.LimitsFor(req)
	return fmt.Sprintf("%s%s/%016x/%d/%d", prefixAnalysis, tier, req.Position.Hash, limits.Depth, limits.MoveTime.Milliseconds())
}

// SaveAnalysis caches a result under key.
func (s *Storage) SaveAnalysis(key string, res engine.Result) error {
	return s.putJSON(key, res, s.ttl)
}

// LoadAnalysis returns a cached result.
func (s *Storage) LoadAnalysis(key string) (engine.Result, bool, error) {
	var res engine.Result
	found, err := s.getJSON(key, &res)
	return res, found, err
}

// CachedAnalyzer answers repeated requests from storage.
type CachedAnalyzer struct {
	Analyzer engine.Analyzer
	Tier     engine.Tier
	Store    *Storage
}

// Analyze implements engine.Analyzer. Random tier results are never cached.
func (c CachedAnalyzer) Analyze(ctx context.Context, req engine.Request) (engine.Result, error) {
	if c.Store == nil || c.Tier == engine.TierRandom {
		return c.Analyzer.Analyze(ctx, req)
	}

	key := AnalysisKey(c.Tier, req)
	if res, found, err := c.Store.LoadAnalysis(key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("analysis-cache-read-failed")
	} else if found {
		log.Debug().Str("key", key).Msg("analysis-cache-hit")
		return res, nil
	}

	res, err := c.Analyzer.Analyze(ctx, req)
	if err != nil {
		return res, err
	}

	// Interrupted searches are not representative of the budget
	if ctx.Err() == nil {
		if err := c.Store.SaveAnalysis(key, res); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("analysis-cache-write-failed")
		}
	}
	return res, nil
}
