package securexchat

import (
	"context"
	"time"

	"github.com/securexchat/client-go/internal/delivery"
)

type watchConfig struct {
	interval        time.Duration
	maxBackoff      time.Duration
	includeExisting bool
}

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

// WatchInterval sets the initial poll interval. Default 2s.
func WatchInterval(d time.Duration) WatchOption {
	return func(c *watchConfig) {
		c.interval = d
	}
}

// WatchMaxBackoff caps the poll interval while the conversation is idle.
// Default 30s.
func WatchMaxBackoff(d time.Duration) WatchOption {
	return func(c *watchConfig) {
		c.maxBackoff = d
	}
}

// WatchIncludeExisting delivers the messages already in the conversation
// before waiting for new ones.
func WatchIncludeExisting() WatchOption {
	return func(c *watchConfig) {
		c.includeExisting = true
	}
}

// Watch polls the conversation with peerID and calls handler once for each
// message it has not delivered before, in creation order. It blocks until
// ctx is done and returns ctx.Err(). Failed polls are logged and retried
// with backoff; only the first listing, which also checks the local key,
// fails Watch outright.
func (c *Client) Watch(ctx context.Context, peerID string, handler func(Message), opts ...WatchOption) error {
	cfg := &watchConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	fetch := func(ctx context.Context) ([]Message, error) {
		return c.Conversation(ctx, peerID)
	}
	poller := delivery.NewPoller(fetch, func(m Message) string { return m.ID }, delivery.Config{
		InitialInterval: cfg.interval,
		MaxBackoff:      cfg.maxBackoff,
		OnError: func(err error) {
			c.logger.Warnf("watch %s: %v", ConversationID(c.accountID, peerID), err)
		},
	})

	if !cfg.includeExisting {
		if err := poller.Prime(ctx); err != nil {
			return err
		}
		return poller.Run(ctx, handler)
	}

	first, err := poller.Poll(ctx)
	if err != nil {
		return err
	}
	for _, m := range first {
		handler(m)
	}
	return poller.Run(ctx, handler)
}
