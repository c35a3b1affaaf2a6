package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/UnknownOlympus/haulage/internal/metrics"
	"github.com/UnknownOlympus/haulage/internal/models"
)

// ErrSuperseded is returned to a quote request that was overtaken by a newer one for the same session.
var ErrSuperseded = errors.New("quote superseded by a newer request")

// Quoter prices a trip.
type Quoter interface {
	Quote(ctx context.Context, req QuoteRequest) (*models.Quote, error)
}

// Sessions serializes quotes per session key. Starting a quote cancels the one still running for the
// same key, and only the newest request may publish a result. A failed quote never replaces the
// last successful one. Sessions without a running quote are dropped once idle for longer than the
// idle TTL.
type Sessions struct {
	quoter  Quoter
	metrics *metrics.Metrics
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	entries   map[string]*session
	lastSweep time.Time
}

type session struct {
	seq    uint64
	cancel context.CancelFunc
	last   *models.Quote
	used   time.Time
}

// NewSessions creates an empty session registry on top of quoter. A zero idleTTL means 30 minutes.
func NewSessions(quoter Quoter, m *metrics.Metrics, idleTTL time.Duration) *Sessions {
	const defaultIdleTTL = 30 * time.Minute

	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}

	return &Sessions{
		quoter:  quoter,
		metrics: m,
		idleTTL: idleTTL,
		now:     time.Now,
		entries: make(map[string]*session),
	}
}

// Quote runs req on behalf of key. An empty key bypasses session tracking.
func (s *Sessions) Quote(ctx context.Context, key string, req QuoteRequest) (*models.Quote, error) {
	if key == "" {
		return s.quoter.Quote(ctx, req)
	}

	quoteCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	now := s.now()
	entry, ok := s.entries[key]
	if ok && s.expired(entry, now) {
		delete(s.entries, key)
		ok = false
	}
	if !ok {
		s.sweep(now)
		entry = &session{}
		s.entries[key] = entry
	}
	entry.used = now
	if entry.cancel != nil {
		entry.cancel()
	}
	entry.seq++
	seq := entry.seq
	entry.cancel = cancel
	s.mu.Unlock()

	quote, err := s.quoter.Quote(quoteCtx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries[key] != entry || entry.seq != seq {
		s.metrics.QuotesSuperseded.Inc()
		return nil, ErrSuperseded
	}
	entry.cancel = nil
	entry.used = s.now()

	if err != nil {
		return nil, err
	}
	entry.last = quote

	return quote, nil
}

// Last returns the most recent successful quote of the session.
func (s *Sessions) Last(key string) (*models.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}

	now := s.now()
	if s.expired(entry, now) {
		delete(s.entries, key)
		return nil, false
	}
	entry.used = now

	return entry.last, entry.last != nil
}

// Forget cancels any running quote of the session and drops its history.
func (s *Sessions) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[key]; ok {
		if entry.cancel != nil {
			entry.cancel()
		}
		delete(s.entries, key)
	}
}

// expired reports whether the session is idle past the TTL. A session with a running quote never expires.
func (s *Sessions) expired(entry *session, now time.Time) bool {
	return entry.cancel == nil && now.Sub(entry.used) > s.idleTTL
}

// sweep drops expired sessions, at most a few times per TTL. Callers hold s.mu.
func (s *Sessions) sweep(now time.Time) {
	const sweepsPerTTL = 4

	if now.Sub(s.lastSweep) < s.idleTTL/sweepsPerTTL {
		return
	}
	s.lastSweep = now

	for key, entry := range s.entries {
		if s.expired(entry, now) {
			delete(s.entries, key)
		}
	}
}
