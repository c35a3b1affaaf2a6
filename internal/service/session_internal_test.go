package service

import (
	"context"
	"testing"
	"time"

	"github.com/UnknownOlympus/haulage/internal/metrics"
	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quoterFunc adapts a function to the Quoter interface.
type quoterFunc func(ctx context.Context, req QuoteRequest) (*models.Quote, error)

func (f quoterFunc) Quote(ctx context.Context, req QuoteRequest) (*models.Quote, error) {
	return f(ctx, req)
}

func newClockedSessions(quoter Quoter, ttl time.Duration) (*Sessions, *time.Time) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	sessions := NewSessions(quoter, metrics.NewMetrics(prometheus.NewRegistry()), ttl)
	sessions.now = func() time.Time { return now }

	return sessions, &now
}

func instantQuoter() Quoter {
	return quoterFunc(func(_ context.Context, req QuoteRequest) (*models.Quote, error) {
		breakdown := models.CostBreakdown{WorkLocation: models.Location{Address: req.Work.Address}}
		return &models.Quote{Breakdown: breakdown}, nil
	})
}

func TestSessions_IdleSessionsAreDropped(t *testing.T) {
	sessions, now := newClockedSessions(instantQuoter(), time.Minute)

	for _, key := range []string{"a", "b", "c"} {
		_, err := sessions.Quote(t.Context(), key, QuoteRequest{Work: Endpoint{Address: key}})
		require.NoError(t, err)
	}
	require.Len(t, sessions.entries, 3)

	*now = now.Add(30 * time.Second)
	_, ok := sessions.Last("c")
	require.True(t, ok)

	*now = now.Add(45 * time.Second)
	_, err := sessions.Quote(t.Context(), "d", QuoteRequest{Work: Endpoint{Address: "d"}})
	require.NoError(t, err)

	assert.Len(t, sessions.entries, 2)
	assert.Contains(t, sessions.entries, "c", "reading the last quote keeps a session alive")
	assert.Contains(t, sessions.entries, "d")
	_, ok = sessions.Last("a")
	assert.False(t, ok)
}

func TestSessions_ExpiredSessionLosesItsLastQuote(t *testing.T) {
	sessions, now := newClockedSessions(instantQuoter(), time.Minute)

	_, err := sessions.Quote(t.Context(), "s", QuoteRequest{Work: Endpoint{Address: "x"}})
	require.NoError(t, err)

	*now = now.Add(2 * time.Minute)

	_, ok := sessions.Last("s")
	assert.False(t, ok)
	assert.Empty(t, sessions.entries)
}

func TestSessions_RunningSessionIsNeverDropped(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	quoter := quoterFunc(func(_ context.Context, req QuoteRequest) (*models.Quote, error) {
		if req.Work.Address == "busy" {
			close(started)
			<-release
		}
		return &models.Quote{}, nil
	})
	sessions, now := newClockedSessions(quoter, time.Minute)

	done := make(chan error, 1)
	go func() {
		_, err := sessions.Quote(t.Context(), "busy", QuoteRequest{Work: Endpoint{Address: "busy"}})
		done <- err
	}()
	<-started

	sessions.mu.Lock()
	*now = now.Add(time.Hour)
	sessions.mu.Unlock()

	_, err := sessions.Quote(t.Context(), "other", QuoteRequest{Work: Endpoint{Address: "other"}})
	require.NoError(t, err)

	sessions.mu.Lock()
	assert.Contains(t, sessions.entries, "busy")
	sessions.mu.Unlock()

	close(release)
	require.NoError(t, <-done)
	_, ok := sessions.Last("busy")
	assert.True(t, ok)
}
