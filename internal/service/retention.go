package service

import (
	"context"
	"log"
	"sync"
	"time"

	"venuepoint-terminal/internal/journal"
)

// RetentionConfig holds configuration for the journal retention scheduler.
type RetentionConfig struct {
	// MaxAge is how long journal entries are kept.
	// Default: 90 days
	MaxAge time.Duration

	// Interval is how often the cleanup runs.
	// Default: 24 hours
	Interval time.Duration
}

// RetentionScheduler periodically trims old entries from the local
// transaction journal so it never grows without bound.
type RetentionScheduler struct {
	repo      journal.Repository
	config    RetentionConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewRetentionScheduler creates a retention scheduler.
func NewRetentionScheduler(repo journal.Repository, config RetentionConfig) *RetentionScheduler {
	if config.MaxAge == 0 {
		config.MaxAge = 90 * 24 * time.Hour
	}
	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}

	return &RetentionScheduler{
		repo:   repo,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins the retention scheduler.
func (s *RetentionScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	log.Printf("[RetentionScheduler] Started - Interval: %v, MaxAge: %v",
		s.config.Interval, s.config.MaxAge)

	// Run an initial trim shortly after startup
	go func() {
		select {
		case <-time.After(time.Minute):
			s.runCleanup()
		case <-s.stopCh:
		}
	}()

	go s.run()
}

// run is the main retention loop.
func (s *RetentionScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runCleanup()
		case <-s.stopCh:
			return
		}
	}
}

// runCleanup deletes entries older than the retention window.
func (s *RetentionScheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.config.MaxAge)
	removed, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("[RetentionScheduler] cleanup failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[RetentionScheduler] removed %d journal entries older than %v", removed, cutoff)
	}
}

// Stop halts the scheduler. Safe to call multiple times.
func (s *RetentionScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.mu.Lock()
		if s.ticker != nil {
			s.ticker.Stop()
		}
		s.isRunning = false
		s.mu.Unlock()
		log.Printf("[RetentionScheduler] Stopped")
	})
}
