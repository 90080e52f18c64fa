package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerFetcher wraps a Fetcher with a per-source circuit breaker so a
// sustained outage on one source trips open and stops hammering it,
// instead of waiting out the request timeout poll after poll.
// It sits one layer below the runner's own backoff: the breaker fails
// fast mid-run instead of waiting out the full per-request timeout on
// every attempt once a host is clearly down.
type BreakerFetcher struct {
	inner    Fetcher
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakerFetcher wraps inner, lazily creating one breaker per source
// key on first use.
func NewBreakerFetcher(inner Fetcher) *BreakerFetcher {
	return &BreakerFetcher{inner: inner, breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

func (b *BreakerFetcher) breakerFor(sourceKey string) *gobreaker.CircuitBreaker {
	if cb, ok := b.breakers[sourceKey]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        sourceKey,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	b.breakers[sourceKey] = cb
	return cb
}

// FetchFor fetches url on behalf of sourceKey, routing through that
// source's breaker. A tripped breaker returns gobreaker.ErrOpenState
// without reaching the network.
func (b *BreakerFetcher) FetchFor(ctx context.Context, sourceKey, url string) (*FetchedDocument, error) {
	cb := b.breakerFor(sourceKey)
	result, err := cb.Execute(func() (interface{}, error) {
		return b.inner.Fetch(ctx, url)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s via %s: %w", url, sourceKey, err)
	}
	doc, ok := result.(*FetchedDocument)
	if !ok {
		return nil, fmt.Errorf("fetch %s via %s: unexpected result type", url, sourceKey)
	}
	return doc, nil
}

// Fetch implements Fetcher directly for callers that don't need a
// per-source breaker key, routing all traffic through a single "default"
// breaker.
func (b *BreakerFetcher) Fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	return b.FetchFor(ctx, "default", url)
}
