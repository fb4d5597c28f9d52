package relay

import (
	"context"
	"errors"
	"time"

	"github.com/securexchat/client-go/internal/api"
)

var (
	// ErrNotFound is returned when an account or message does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when a message id is already stored.
	ErrExists = errors.New("already exists")
)

// Store persists directory records and message logs.
type Store interface {
	// GetAccount returns the account record or ErrNotFound.
	GetAccount(ctx context.Context, accountID string) (*api.Account, error)
	// UpsertPublicKey sets the account's public key, creating the record
	// if needed and leaving profile fields untouched.
	UpsertPublicKey(ctx context.Context, accountID, publicKey string, at time.Time) error
	// UpsertProfile sets the account's profile fields, leaving the public
	// key untouched, and returns the updated record.
	UpsertProfile(ctx context.Context, accountID, displayName, photoURL string, at time.Time) (*api.Account, error)
	// AppendMessage stores rec in the conversation. rec.CreatedAt is set by
	// the caller. A duplicate id returns ErrExists.
	AppendMessage(ctx context.Context, conversationID string, rec *api.MessageRecord) error
	// ListMessages returns the conversation ordered by CreatedAt.
	ListMessages(ctx context.Context, conversationID string) ([]api.MessageRecord, error)
	// DeleteExpired removes disappearing messages created before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)
}
