/*
scheduler.go - Live program cache with periodic refresh

PURPOSE:
  Simulations that omit a config run against the live program: the default
  points rules combined with the volume thresholds admins keep in the tier
  criteria table. Building that bundle on every request would hit the
  store each time, so LiveProgram caches it and a background goroutine
  reloads it on an interval. Writes through the API refresh it at once.

FALLBACK:
  When the table is incomplete (a promotable tier missing or inactive) or
  its rows fail validation, the cache holds presets.DefaultProgram() and
  reports ConfigSourceDefault. A store error keeps the previous bundle.

CONFIGURATION:
  - RefreshInterval: How often to reload (default: 1 minute)

USAGE:
  program := NewLiveProgram(store, logger)
  program.Start()
  // ... later
  program.Stop()

SEE ALSO:
  - handlers.go: RunSimulation, UpdateCriteria
  - store/store.go: ActiveVolumeCriteria
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/presets"
	"github.com/warp/loyalty-engine/store"
)

// LiveProgram caches the bundle built from the live criteria table.
type LiveProgram struct {
	Store           store.CriteriaStore
	Logger          *zap.Logger
	RefreshInterval time.Duration

	mu       sync.RWMutex
	bundle   *loyalty.Bundle
	source   string
	loadedAt time.Time

	lifecycle sync.Mutex
	ticker    *time.Ticker
	stop      chan struct{}
	wg        sync.WaitGroup
}

// NewLiveProgram creates an unloaded cache over s.
func NewLiveProgram(s store.CriteriaStore, logger *zap.Logger) *LiveProgram {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveProgram{
		Store:           s,
		Logger:          logger.Named("live-program"),
		RefreshInterval: time.Minute,
	}
}

// Current returns the cached bundle and where it came from, loading it on
// first use.
func (p *LiveProgram) Current(ctx context.Context) (*loyalty.Bundle, string, error) {
	p.mu.RLock()
	bundle, source := p.bundle, p.source
	p.mu.RUnlock()
	if bundle != nil {
		return bundle, source, nil
	}

	if err := p.Refresh(ctx); err != nil {
		return nil, "", err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bundle, p.source, nil
}

// LoadedAt reports when the cache was last rebuilt.
func (p *LiveProgram) LoadedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loadedAt
}

// Refresh rebuilds the bundle from the store.
func (p *LiveProgram) Refresh(ctx context.Context) error {
	recs, err := p.Store.List(ctx)
	if err != nil {
		p.Logger.Error("failed to load tier criteria", zap.Error(err))
		return err
	}

	bundle, source := presets.DefaultProgram(), ConfigSourceDefault
	if volume, ok := store.ActiveVolumeCriteria(recs); ok {
		live, err := presets.WithVolumeCriteria(volume)
		if err != nil {
			p.Logger.Warn("live tier criteria rejected, using defaults", zap.Error(err))
		} else {
			bundle, source = live, ConfigSourceLiveCriteria
		}
	}

	p.mu.Lock()
	p.bundle, p.source, p.loadedAt = bundle, source, time.Now()
	p.mu.Unlock()

	p.Logger.Debug("live program refreshed", zap.String("source", source), zap.Int("rows", len(recs)))
	return nil
}

// Start begins periodic refreshes. It loads once before returning.
func (p *LiveProgram) Start() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if p.ticker != nil {
		return
	}
	_ = p.Refresh(context.Background())

	p.ticker = time.NewTicker(p.RefreshInterval)
	p.stop = make(chan struct{})
	p.wg.Add(1)
	go p.run(p.ticker, p.stop)

	p.Logger.Info("started", zap.Duration("interval", p.RefreshInterval))
}

// Stop halts periodic refreshes and waits for the loop to exit.
func (p *LiveProgram) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if p.ticker == nil {
		return
	}
	p.ticker.Stop()
	close(p.stop)
	p.wg.Wait()
	p.ticker = nil
	p.Logger.Info("stopped")
}

func (p *LiveProgram) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer p.wg.Done()

	for {
		select {
		case <-ticker.C:
			_ = p.Refresh(context.Background())
		case <-stop:
			return
		}
	}
}
