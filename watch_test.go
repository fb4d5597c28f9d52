package securexchat

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClient_Watch(t *testing.T) {
	dir := NewMemoryDirectory()
	log := NewMemoryMessageLog()
	alice, _ := testClient(t, "alice", dir, log)
	bob, _ := testClient(t, "bob", dir, log)
	ctx := context.Background()

	for _, c := range []*Client{alice, bob} {
		if _, err := c.Provision(ctx); err != nil {
			t.Fatalf("Provision() error = %v", err)
		}
	}
	if _, err := alice.Send(ctx, "bob", OutgoingMessage{Text: "before"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	tests := []struct {
		name  string
		opts  []WatchOption
		first string
	}{
		{"new only", nil, "after"},
		{"include existing", []WatchOption{WatchIncludeExisting()}, "before"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wctx, cancel := context.WithCancel(ctx)
			defer cancel()

			got := make(chan Message, 10)
			done := make(chan error, 1)
			opts := append([]WatchOption{WatchInterval(5 * time.Millisecond), WatchMaxBackoff(10 * time.Millisecond)}, tt.opts...)
			go func() { done <- bob.Watch(wctx, "alice", func(m Message) { got <- m }, opts...) }()

			time.Sleep(100 * time.Millisecond)
			if _, err := alice.Send(ctx, "bob", OutgoingMessage{Text: "after"}); err != nil {
				t.Fatalf("Send() error = %v", err)
			}

			select {
			case m := <-got:
				if m.Text != tt.first {
					t.Errorf("first delivered = %q, want %q", m.Text, tt.first)
				}
				if !m.Readable || m.SenderID != "alice" {
					t.Errorf("delivered = %+v", m)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Watch() delivered nothing")
			}

			cancel()
			select {
			case err := <-done:
				if !errors.Is(err, context.Canceled) {
					t.Errorf("Watch() error = %v, want context.Canceled", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Watch() did not return after cancel")
			}
		})
	}
}

func TestClient_Watch_MissingLocalKey(t *testing.T) {
	c, _ := testClient(t, "carol", NewMemoryDirectory(), NewMemoryMessageLog())

	err := c.Watch(context.Background(), "alice", func(Message) {})
	if !errors.Is(err, ErrPrivateKeyNotFound) {
		t.Errorf("Watch() error = %v, want ErrPrivateKeyNotFound", err)
	}
}
