package api

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hailam/othelloplay/internal/engine"
	"github.com/hailam/othelloplay/internal/storage"
)

// WorkerPool bounds the number of concurrent analyses and keeps idle
// analyzers around so their tables are reused.
type WorkerPool struct {
	sem    chan struct{}
	queued int64
	active int64
	total  int64

	cfg   engine.Config
	book  engine.OpeningBook
	store *storage.Storage

	mu   sync.Mutex
	idle map[engine.Tier][]engine.Analyzer
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	MaxWorkers int           // Max concurrent analyses (default: 4)
	Engine     engine.Config // Configuration of created engines
}

// PoolStats reports pool usage.
type PoolStats struct {
	Active int64 `json:"active"`
	Queued int64 `json:"queued"`
	Total  int64 `json:"total"`
	Max    int   `json:"max"`
}

// NewWorkerPool creates a new worker pool with the given configuration.
func NewWorkerPool(config PoolConfig) *WorkerPool {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 4
	}

	return &WorkerPool{
		sem:  make(chan struct{}, config.MaxWorkers),
		cfg:  config.Engine,
		idle: make(map[engine.Tier][]engine.Analyzer),
	}
}

// SetBook sets the opening book of analyzers created from now on.
func (p *WorkerPool) SetBook(b engine.OpeningBook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.book = b
	p.idle = make(map[engine.Tier][]engine.Analyzer)
}

// SetStore enables the analysis cache for analyzers created from now on.
func (p *WorkerPool) SetStore(s *storage.Storage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store = s
	p.idle = make(map[engine.Tier][]engine.Analyzer)
}

// Acquire acquires a slot for an analysis.
// Returns an error if the context is cancelled while waiting.
func (p *WorkerPool) Acquire(ctx context.Context) error {
	atomic.AddInt64(&p.queued, 1)
	defer atomic.AddInt64(&p.queued, -1)

	select {
	case p.sem <- struct{}{}:
		atomic.AddInt64(&p.active, 1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release releases an analysis slot.
func (p *WorkerPool) Release() {
	atomic.AddInt64(&p.active, -1)
	atomic.AddInt64(&p.total, 1)
	<-p.sem
}

// Analyze runs one analysis inside a pool slot.
func (p *WorkerPool) Analyze(ctx context.Context, tier engine.Tier, req engine.Request) (engine.Result, error) {
	if err := p.Acquire(ctx); err != nil {
		return engine.Result{}, err
	}
	defer p.Release()

	a, err := p.get(tier)
	if err != nil {
		return engine.Result{}, err
	}
	defer p.put(tier, a)

	return a.Analyze(ctx, req)
}

func (p *WorkerPool) get(tier engine.Tier) (engine.Analyzer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if list := p.idle[tier]; len(list) > 0 {
		a := list[len(list)-1]
		p.idle[tier] = list[:len(list)-1]
		return a, nil
	}

	a, err := engine.NewAnalyzer(tier, p.cfg, p.book)
	if err != nil {
		return nil, err
	}
	if p.store != nil {
		a = storage.CachedAnalyzer{Analyzer: a, Tier: tier, Store: p.store}
	}
	return a, nil
}

func (p *WorkerPool) put(tier engine.Tier, a engine.Analyzer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idle[tier] = append(p.idle[tier], a)
}

// Stats returns current pool statistics.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		Active: atomic.LoadInt64(&p.active),
		Queued: atomic.LoadInt64(&p.queued),
		Total:  atomic.LoadInt64(&p.total),
		Max:    cap(p.sem),
	}
}
