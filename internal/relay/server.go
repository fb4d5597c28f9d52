package relay

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/securexchat/client-go/internal/api"
	"github.com/securexchat/client-go/internal/crypto"
)

const (
	// DefaultRetention is how long disappearing messages are kept.
	DefaultRetention = 5 * time.Minute

	maxBodyBytes = 64 << 10
)

// Logger is the subset of logging.Logger the server uses.
type Logger interface {
	Infof(msg string, args ...any)
	Debugf(msg string, args ...any)
	Errorf(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Errorf(string, ...any) {}

// Server serves the relay HTTP API.
type Server struct {
	store     Store
	apiKey    string
	signer    *crypto.DirectorySigner
	retention time.Duration
	logger    Logger

	// appendMu keeps server-assigned creation times strictly increasing.
	appendMu sync.Mutex
	lastTime time.Time
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithAPIKey requires every request to carry "Authorization: Bearer key".
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithSigner makes the server attest public key lookups.
func WithSigner(signer *crypto.DirectorySigner) Option {
	return func(s *Server) {
		s.signer = signer
	}
}

// WithRetention sets the retention reported by /api/server-info.
func WithRetention(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer returns a server over store.
func NewServer(store Store, opts ...Option) *Server {
	s := &Server{
		store:     store,
		retention: DefaultRetention,
		logger:    nopLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler for the relay API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/server-info", s.handleServerInfo)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("GET /api/accounts/{id}/public-key", s.handleGetPublicKey)
	mux.HandleFunc("PUT /api/accounts/{id}/public-key", s.handlePutPublicKey)
	mux.HandleFunc("PUT /api/accounts/{id}/profile", s.handlePutProfile)
	mux.HandleFunc("POST /api/conversations/{cid}/messages", s.handleAppendMessage)
	mux.HandleFunc("GET /api/conversations/{cid}/messages", s.handleListMessages)
	return s.withRequestLog(s.withAuth(mux))
}

type ctxKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Debugf("%s %s %d %s (%s)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond), id)
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.apiKey)) != 1 {
			s.writeError(w, r, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.HealthResponse{OK: true})
}

func (s *Server) handleServerInfo(w http.ResponseWriter, r *http.Request) {
	info := api.ServerInfo{RetentionSeconds: int(s.retention / time.Second)}
	if s.signer != nil {
		info.DirectorySigningKey = s.signer.PublicKeyB64()
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := s.store.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleGetPublicKey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	acc, err := s.store.GetAccount(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if acc.PublicKey == "" {
		s.writeError(w, r, http.StatusNotFound, "no public key published")
		return
	}

	rec := api.PublicKeyRecord{AccountID: id, PublicKey: acc.PublicKey}
	if s.signer != nil {
		sig, err := s.signer.Sign(id, acc.PublicKey)
		if err != nil {
			s.logger.Errorf("attest %s: %v", id, err)
			s.writeError(w, r, http.StatusInternalServerError, "attestation failed")
			return
		}
		rec.Signature = sig
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePutPublicKey(w http.ResponseWriter, r *http.Request) {
	var req api.PublishKeyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, err := crypto.ParsePublicKey(req.PublicKey); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "publicKey: "+err.Error())
		return
	}

	id := r.PathValue("id")
	if err := s.store.UpsertPublicKey(r.Context(), id, req.PublicKey, s.now().UTC()); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.logger.Infof("published key for %s", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req api.ProfileRequest
	if !s.decode(w, r, &req) {
		return
	}
	acc, err := s.store.UpsertProfile(r.Context(), r.PathValue("id"), req.DisplayName, req.PhotoURL, s.now().UTC())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	var rec api.MessageRecord
	if !s.decode(w, r, &rec) {
		return
	}
	if err := rec.Validate(); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	cid := r.PathValue("cid")
	s.appendMu.Lock()
	rec.CreatedAt = s.nextTimestamp()
	err := s.store.AppendMessage(r.Context(), cid, &rec)
	s.appendMu.Unlock()
	if errors.Is(err, ErrExists) {
		// A retried append whose first response was lost gets the stored
		// record back. Anything else reusing the id is a conflict.
		if prev := s.findMessage(r, cid, rec.ID); prev != nil && prev.SameContent(&rec) {
			s.logger.Debugf("append %s: replaying stored message %s", cid, rec.ID)
			s.writeJSON(w, http.StatusOK, prev)
			return
		}
	}
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) findMessage(r *http.Request, cid, id string) *api.MessageRecord {
	msgs, err := s.store.ListMessages(r.Context(), cid)
	if err != nil {
		s.logger.Errorf("append %s: look up %s: %v", cid, id, err)
		return nil
	}
	for i := range msgs {
		if msgs[i].ID == id {
			return &msgs[i]
		}
	}
	return nil
}

// nextTimestamp must be called with appendMu held.
func (s *Server) nextTimestamp() time.Time {
	t := s.now().UTC()
	if !t.After(s.lastTime) {
		t = s.lastTime.Add(time.Microsecond)
	}
	s.lastTime = t
	return t
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.store.ListMessages(r.Context(), r.PathValue("cid"))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []api.MessageRecord{}
	}
	s.writeJSON(w, http.StatusOK, api.MessageList{Messages: msgs})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: msg, RequestID: requestID(r.Context())})
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, ErrExists):
		s.writeError(w, r, http.StatusConflict, "message already exists")
	default:
		s.logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
