package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/UnknownOlympus/haulage/internal/metrics"
	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/UnknownOlympus/haulage/internal/routing"
	"github.com/UnknownOlympus/haulage/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedQuoter blocks each call until it is released or its context is canceled.
type gatedQuoter struct {
	mu      sync.Mutex
	started chan string
	release map[string]chan result
}

type result struct {
	quote *models.Quote
	err   error
}

func newGatedQuoter() *gatedQuoter {
	return &gatedQuoter{started: make(chan string, 8), release: make(map[string]chan result)}
}

func (g *gatedQuoter) gate(name string) chan result {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch, ok := g.release[name]
	if !ok {
		ch = make(chan result, 1)
		g.release[name] = ch
	}

	return ch
}

func (g *gatedQuoter) Quote(ctx context.Context, req service.QuoteRequest) (*models.Quote, error) {
	name := req.Work.Address
	gate := g.gate(name)
	g.started <- name

	select {
	case res := <-gate:
		return res.quote, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func requestFor(name string) service.QuoteRequest {
	return service.QuoteRequest{Work: service.Endpoint{Address: name}}
}

func quoteWithTotal(total float64) *models.Quote {
	return &models.Quote{Breakdown: models.CostBreakdown{TotalCost: total}}
}

func TestSessions_NewRequestSupersedesRunningOne(t *testing.T) {
	quoter := newGatedQuoter()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	sessions := service.NewSessions(quoter, m, 0)
	ctx := t.Context()

	firstErr := make(chan error, 1)
	go func() {
		_, err := sessions.Quote(ctx, "session-1", requestFor("first"))
		firstErr <- err
	}()
	require.Equal(t, "first", <-quoter.started)

	secondDone := make(chan *models.Quote, 1)
	go func() {
		quote, err := sessions.Quote(ctx, "session-1", requestFor("second"))
		assert.NoError(t, err)
		secondDone <- quote
	}()
	require.Equal(t, "second", <-quoter.started)

	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, service.ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("first quote was not canceled")
	}

	quoter.gate("second") <- result{quote: quoteWithTotal(590.5)}
	got := <-secondDone
	require.NotNil(t, got)

	last, ok := sessions.Last("session-1")
	require.True(t, ok)
	assert.Same(t, got, last)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.QuotesSuperseded), 0)
}

func TestSessions_LastQuoteSurvivesWhileNewOneRuns(t *testing.T) {
	quoter := newGatedQuoter()
	sessions := service.NewSessions(quoter, metrics.NewMetrics(prometheus.NewRegistry()), 0)
	ctx := t.Context()

	quoter.gate("old") <- result{quote: quoteWithTotal(100)}
	_, err := sessions.Quote(ctx, "s", requestFor("old"))
	require.NoError(t, err)
	<-quoter.started

	newDone := make(chan error, 1)
	go func() {
		_, errNew := sessions.Quote(ctx, "s", requestFor("new"))
		newDone <- errNew
	}()
	<-quoter.started

	last, ok := sessions.Last("s")
	require.True(t, ok)
	assert.InDelta(t, 100.0, last.Breakdown.TotalCost, 0)

	quoter.gate("new") <- result{quote: quoteWithTotal(200)}
	require.NoError(t, <-newDone)

	last, _ = sessions.Last("s")
	assert.InDelta(t, 200.0, last.Breakdown.TotalCost, 0)
}

func TestSessions_FailureKeepsLastGoodQuote(t *testing.T) {
	quoter := newGatedQuoter()
	sessions := service.NewSessions(quoter, metrics.NewMetrics(prometheus.NewRegistry()), 0)
	ctx := t.Context()

	quoter.gate("good") <- result{quote: quoteWithTotal(321)}
	_, err := sessions.Quote(ctx, "s", requestFor("good"))
	require.NoError(t, err)

	quoter.gate("bad") <- result{err: routing.ErrRouteUnavailable}
	quote, err := sessions.Quote(ctx, "s", requestFor("bad"))
	require.Nil(t, quote)
	require.ErrorIs(t, err, routing.ErrRouteUnavailable)

	last, ok := sessions.Last("s")
	require.True(t, ok)
	assert.InDelta(t, 321.0, last.Breakdown.TotalCost, 0)
}

func TestSessions_KeysAreIndependent(t *testing.T) {
	quoter := newGatedQuoter()
	sessions := service.NewSessions(quoter, metrics.NewMetrics(prometheus.NewRegistry()), 0)
	ctx := t.Context()

	aDone := make(chan error, 1)
	go func() {
		_, err := sessions.Quote(ctx, "a", requestFor("a-req"))
		aDone <- err
	}()
	<-quoter.started

	quoter.gate("b-req") <- result{quote: quoteWithTotal(1)}
	_, err := sessions.Quote(ctx, "b", requestFor("b-req"))
	require.NoError(t, err)

	quoter.gate("a-req") <- result{quote: quoteWithTotal(2)}
	require.NoError(t, <-aDone)
}

func TestSessions_ForgetCancelsAndClears(t *testing.T) {
	quoter := newGatedQuoter()
	sessions := service.NewSessions(quoter, metrics.NewMetrics(prometheus.NewRegistry()), 0)
	ctx := t.Context()

	quoter.gate("kept") <- result{quote: quoteWithTotal(10)}
	_, err := sessions.Quote(ctx, "s", requestFor("kept"))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, errRun := sessions.Quote(ctx, "s", requestFor("running"))
		done <- errRun
	}()
	<-quoter.started
	<-quoter.started

	sessions.Forget("s")

	require.ErrorIs(t, <-done, service.ErrSuperseded)
	_, ok := sessions.Last("s")
	assert.False(t, ok)
}

// stubbornQuoter ignores cancellation and always finishes its work.
type stubbornQuoter struct {
	proceed chan struct{}
	started chan struct{}
}

func (q *stubbornQuoter) Quote(_ context.Context, req service.QuoteRequest) (*models.Quote, error) {
	q.started <- struct{}{}
	if req.Work.Address == "slow" {
		<-q.proceed
	}

	return &models.Quote{Breakdown: models.CostBreakdown{WorkLocation: models.Location{Address: req.Work.Address}}}, nil
}

func TestSessions_LateSuccessOfOldRequestIsDiscarded(t *testing.T) {
	quoter := &stubbornQuoter{proceed: make(chan struct{}), started: make(chan struct{}, 2)}
	sessions := service.NewSessions(quoter, metrics.NewMetrics(prometheus.NewRegistry()), 0)
	ctx := t.Context()

	slowErr := make(chan error, 1)
	go func() {
		_, err := sessions.Quote(ctx, "s", requestFor("slow"))
		slowErr <- err
	}()
	<-quoter.started

	fast, err := sessions.Quote(ctx, "s", requestFor("fast"))
	require.NoError(t, err)
	<-quoter.started

	close(quoter.proceed)
	require.ErrorIs(t, <-slowErr, service.ErrSuperseded)

	last, ok := sessions.Last("s")
	require.True(t, ok)
	assert.Same(t, fast, last)
	assert.Equal(t, "fast", last.Breakdown.WorkLocation.Address)
}

func TestSessions_EmptyKeyBypassesTracking(t *testing.T) {
	quoter := newGatedQuoter()
	sessions := service.NewSessions(quoter, metrics.NewMetrics(prometheus.NewRegistry()), 0)

	quoter.gate("x") <- result{quote: quoteWithTotal(5)}
	quote, err := sessions.Quote(t.Context(), "", requestFor("x"))

	require.NoError(t, err)
	require.NotNil(t, quote)
	_, ok := sessions.Last("")
	assert.False(t, ok)
}
