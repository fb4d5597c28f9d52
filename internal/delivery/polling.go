package delivery

import (
	"context"
	"math/rand"
	"time"
)

const (
	PollingInitialInterval   = 2 * time.Second
	PollingMaxBackoff        = 30 * time.Second
	PollingBackoffMultiplier = 1.5
	PollingJitterFactor      = 0.3
)

// Fetcher lists the current items of a feed in order.
type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Config tunes a Poller. Zero values use the package defaults.
type Config struct {
	InitialInterval time.Duration
	MaxBackoff      time.Duration
	// OnError receives fetch errors. Polling continues after them.
	OnError func(error)
}

// Poller repeatedly fetches a feed and hands out items whose key it has
// not seen.
type Poller[T any] struct {
	fetch Fetcher[T]
	key   func(T) string
	seen  map[string]struct{}

	initial    time.Duration
	maxBackoff time.Duration
	onError    func(error)
}

// NewPoller creates a poller over fetch. key identifies an item across
// fetches.
func NewPoller[T any](fetch Fetcher[T], key func(T) string, cfg Config) *Poller[T] {
	p := &Poller[T]{
		fetch:      fetch,
		key:        key,
		seen:       make(map[string]struct{}),
		initial:    cfg.InitialInterval,
		maxBackoff: cfg.MaxBackoff,
		onError:    cfg.OnError,
	}
	if p.initial <= 0 {
		p.initial = PollingInitialInterval
	}
	if p.maxBackoff <= 0 {
		p.maxBackoff = PollingMaxBackoff
	}
	if p.maxBackoff < p.initial {
		p.maxBackoff = p.initial
	}
	return p
}

// Prime marks every item currently in the feed as seen.
func (p *Poller[T]) Prime(ctx context.Context) error {
	_, err := p.Poll(ctx)
	return err
}

// Poll fetches once and returns the unseen items in feed order, marking
// them seen.
func (p *Poller[T]) Poll(ctx context.Context) ([]T, error) {
	items, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	var fresh []T
	for _, item := range items {
		k := p.key(item)
		if _, ok := p.seen[k]; ok {
			continue
		}
		p.seen[k] = struct{}{}
		fresh = append(fresh, item)
	}
	return fresh, nil
}

// Run polls until ctx is done, calling handler for each new item, and
// returns ctx.Err().
func (p *Poller[T]) Run(ctx context.Context, handler func(T)) error {
	interval := p.initial
	for {
		items, err := p.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if p.onError != nil {
				p.onError(err)
			}
		}
		for _, item := range items {
			handler(item)
		}
		interval = p.next(interval, len(items) > 0)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(withJitter(interval)):
		}
	}
}

// next returns the interval after a poll. New items reset it, anything
// else grows it up to the cap.
func (p *Poller[T]) next(current time.Duration, gotNew bool) time.Duration {
	if gotNew {
		return p.initial
	}
	grown := time.Duration(float64(current) * PollingBackoffMultiplier)
	if grown > p.maxBackoff {
		return p.maxBackoff
	}
	return grown
}

func withJitter(d time.Duration) time.Duration {
	return d + time.Duration(rand.Float64()*PollingJitterFactor*float64(d))
}
