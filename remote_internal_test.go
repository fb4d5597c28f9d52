package securexchat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/securexchat/client-go/internal/api"
	"github.com/securexchat/client-go/internal/relay"
)

func newRemoteLog(t *testing.T, handler http.Handler) *RemoteMessageLog {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client, err := api.New("", api.WithBaseURL(ts.URL), api.WithRetries(0))
	if err != nil {
		t.Fatal(err)
	}
	return &RemoteMessageLog{api: client}
}

func TestRemoteMessageLog_Duplicate(t *testing.T) {
	log := newRemoteLog(t, relay.NewServer(relay.NewMemoryStore()).Handler())
	ctx := context.Background()

	env := textEnv("m1", "alice")
	first, err := log.Append(ctx, "ab", env)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	again, err := log.Append(ctx, "ab", env)
	if err != nil {
		t.Fatalf("Append(resend) error = %v", err)
	}
	if again.ID != "m1" || !again.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("Append(resend) = %+v, want the stored copy %+v", again, first)
	}

	if _, err := log.Append(ctx, "ab", textEnv("m1", "mallory")); !errors.Is(err, ErrMessageExists) {
		t.Errorf("Append(other sender, same id) error = %v, want ErrMessageExists", err)
	}
}

// A relay that answers every duplicate with 409 still lets a resend of the
// stored message succeed.
func TestRemoteMessageLog_ConflictFallsBackToList(t *testing.T) {
	stored := `{"id":"m1","senderId":"alice","createdAt":"2024-01-01T00:00:00Z","kind":"text","ciphertextForRecipient":"r-m1","ciphertextForSender":"s-m1"}`
	log := newRemoteLog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"already exists"}`))
			return
		}
		_, _ = w.Write([]byte(`{"messages":[` + stored + `]}`))
	}))
	ctx := context.Background()

	got, err := log.Append(ctx, "ab", textEnv("m1", "alice"))
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if got.ID != "m1" || got.CreatedAt.Year() != 2024 {
		t.Errorf("Append() = %+v, want the listed record", got)
	}

	if _, err := log.Append(ctx, "ab", textEnv("m2", "alice")); !errors.Is(err, ErrMessageExists) {
		t.Errorf("Append(unlisted id) error = %v, want ErrMessageExists", err)
	}
}

func TestRemoteMessageLog_SkipsInvalidRecords(t *testing.T) {
	log := newRemoteLog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[
			{"id":"ok","senderId":"a","kind":"text","ciphertextForRecipient":"r","ciphertextForSender":"s"},
			{"id":"half","senderId":"a","kind":"text","ciphertextForRecipient":"r"},
			{"id":"weird","senderId":"a","kind":"audio"}
		]}`))
	}))
	logger := &recordingLogger{}
	log.logger = logger

	msgs, err := log.List(context.Background(), "ab")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != "ok" {
		t.Errorf("List() = %+v, want only the valid record", msgs)
	}
	if debugs, _ := logger.count(); debugs != 2 {
		t.Errorf("debug lines = %d, want one per skipped record", debugs)
	}
}

func TestRemoteMessageLog_ServerError(t *testing.T) {
	log := newRemoteLog(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req-9")
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := log.List(context.Background(), "ab")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 || apiErr.RequestID != "req-9" {
		t.Errorf("List() error = %v, want *APIError 500", err)
	}
}

// relayPair provisions alice and bob against one relay and returns their
// clients.
func relayPair(t *testing.T, url string, opts ...Option) (*Client, *Client) {
	t.Helper()
	ctx := context.Background()
	newClient := func(id string) *Client {
		c, err := New(id, append([]Option{WithBaseURL(url)}, opts...)...)
		if err != nil {
			t.Fatalf("New(%s) error = %v", id, err)
		}
		if _, err := c.Provision(ctx); err != nil {
			t.Fatalf("Provision(%s) error = %v", id, err)
		}
		return c
	}
	return newClient("alice"), newClient("bob")
}

func TestClient_SendSurvivesLostAppendResponse(t *testing.T) {
	handler := relay.NewServer(relay.NewMemoryStore()).Handler()
	var posts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/messages") && posts.Add(1) == 1 {
			// Store the message, then drop the connection before replying.
			handler.ServeHTTP(httptest.NewRecorder(), r)
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	ctx := context.Background()
	alice, bob := relayPair(t, ts.URL, WithRetries(2))

	if _, err := alice.Send(ctx, "bob", OutgoingMessage{Text: "once"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if n := posts.Load(); n != 2 {
		t.Errorf("append requests = %d, want 2", n)
	}

	msgs, err := bob.Conversation(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Text != "once" {
		t.Errorf("Conversation() = %+v, want the message stored once", msgs)
	}
}

func TestClient_RetentionFromRelay(t *testing.T) {
	ts := httptest.NewServer(relay.NewServer(relay.NewMemoryStore(), relay.WithRetention(time.Hour)).Handler())
	t.Cleanup(ts.Close)
	ctx := context.Background()

	alice, bob := relayPair(t, ts.URL)
	if _, err := alice.Send(ctx, "bob", OutgoingMessage{Text: "for an hour", Disappearing: true}); err != nil {
		t.Fatal(err)
	}

	bob.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	msgs, err := bob.Conversation(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Errorf("Conversation() after 10m = %d messages, want 1 under a 1h relay retention", len(msgs))
	}

	bob.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if msgs, _ := bob.Conversation(ctx, "alice"); len(msgs) != 0 {
		t.Errorf("Conversation() after 2h = %d messages, want 0", len(msgs))
	}
}

func TestClient_ExplicitRetentionOverridesRelay(t *testing.T) {
	var infos atomic.Int32
	handler := relay.NewServer(relay.NewMemoryStore(), relay.WithRetention(time.Hour)).Handler()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/server-info" {
			infos.Add(1)
		}
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)
	ctx := context.Background()

	alice, bob := relayPair(t, ts.URL, WithRetention(time.Minute))
	if _, err := alice.Send(ctx, "bob", OutgoingMessage{Text: "brief", Disappearing: true}); err != nil {
		t.Fatal(err)
	}
	bob.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	msgs, err := bob.Conversation(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Errorf("Conversation() = %d messages, want 0 under a 1m client retention", len(msgs))
	}
	if n := infos.Load(); n != 0 {
		t.Errorf("server-info requests = %d, want 0", n)
	}
}

func TestClient_RetentionFallsBackWhenInfoFails(t *testing.T) {
	logger := &recordingLogger{}
	c, err := New("alice", WithBaseURL("http://127.0.0.1:1"), WithRetries(0), WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.retentionWindow(context.Background()); got != DefaultRetention {
		t.Errorf("retentionWindow() = %v, want %v", got, DefaultRetention)
	}
	if c.retentionResolved {
		t.Error("retention marked resolved after a failed lookup")
	}
	if _, warns := logger.count(); warns != 1 {
		t.Errorf("warnings = %d, want 1", warns)
	}
}

func TestClient_WithRetriesZeroDisablesRetry(t *testing.T) {
	var attempts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	t.Cleanup(ts.Close)

	c, err := New("alice", WithBaseURL(ts.URL), WithRetries(0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ServerInfo(context.Background()); err == nil {
		t.Fatal("ServerInfo() expected error")
	}
	if n := attempts.Load(); n != 1 {
		t.Errorf("attempts = %d, want 1", n)
	}
}
