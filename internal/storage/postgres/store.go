// Package postgres is a relay.Store backed by PostgreSQL through bun.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/securexchat/client-go/internal/api"
	"github.com/securexchat/client-go/internal/relay"
)

// Store implements relay.Store.
type Store struct {
	db *bun.DB
}

var _ relay.Store = (*Store)(nil)

// Open connects to the database at dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*bun.DB, error) {
	sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "postgres.Open.Ping")
	}
	return bun.NewDB(sqlDB, pgdialect.New()), nil
}

// New returns a Store over db.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// CreateSchema creates the tables and indexes if they do not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	for _, model := range []any{(*Account)(nil), (*Message)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return errors.Wrapf(err, "postgres.CreateSchema.%T", model)
		}
	}
	_, err := s.db.NewCreateIndex().
		Model((*Message)(nil)).
		Index("messages_conversation_created_idx").
		Column("conversation_id", "created_at", "seq").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "postgres.CreateSchema.Index")
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (*api.Account, error) {
	acc := new(Account)
	err := s.db.NewSelect().Model(acc).Where("account_id = ?", accountID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, relay.ErrNotFound
		}
		return nil, errors.Wrap(err, "postgres.GetAccount.Scan")
	}
	return acc.toAPI(), nil
}

func (s *Store) UpsertPublicKey(ctx context.Context, accountID, publicKey string, at time.Time) error {
	acc := &Account{AccountID: accountID, PublicKey: publicKey, UpdatedAt: at}
	_, err := s.db.NewInsert().
		Model(acc).
		On("CONFLICT (account_id) DO UPDATE").
		Set("public_key = EXCLUDED.public_key").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "postgres.UpsertPublicKey.Exec")
	}
	return nil
}

func (s *Store) UpsertProfile(ctx context.Context, accountID, displayName, photoURL string, at time.Time) (*api.Account, error) {
	acc := &Account{AccountID: accountID, DisplayName: displayName, PhotoURL: photoURL, UpdatedAt: at}
	_, err := s.db.NewInsert().
		Model(acc).
		On("CONFLICT (account_id) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("photo_url = EXCLUDED.photo_url").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "postgres.UpsertProfile.Exec")
	}
	return acc.toAPI(), nil
}

func (s *Store) AppendMessage(ctx context.Context, conversationID string, rec *api.MessageRecord) error {
	res, err := s.db.NewInsert().
		Model(messageFromAPI(conversationID, rec)).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "postgres.AppendMessage.Exec")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "postgres.AppendMessage.RowsAffected")
	}
	if n == 0 {
		return relay.ErrExists
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]api.MessageRecord, error) {
	var msgs []Message
	err := s.db.NewSelect().
		Model(&msgs).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC", "seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "postgres.ListMessages.Scan")
	}

	out := make([]api.MessageRecord, len(msgs))
	for i := range msgs {
		out[i] = msgs[i].toAPI()
	}
	return out, nil
}

func (s *Store) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.NewDelete().
		Model((*Message)(nil)).
		Where("expires_after = TRUE").
		Where("created_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "postgres.DeleteExpired.Exec")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "postgres.DeleteExpired.RowsAffected")
	}
	return int(n), nil
}
