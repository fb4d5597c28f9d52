package relay

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/securexchat/client-go/internal/api"
)

type storedMessage struct {
	seq uint64
	rec api.MessageRecord
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]api.Account
	convs    map[string][]*storedMessage
	ids      map[string]struct{}
	seq      uint64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]api.Account),
		convs:    make(map[string][]*storedMessage),
		ids:      make(map[string]struct{}),
	}
}

func (s *MemoryStore) GetAccount(ctx context.Context, accountID string) (*api.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	return &acc, nil
}

func (s *MemoryStore) UpsertPublicKey(ctx context.Context, accountID, publicKey string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[accountID]
	acc.AccountID = accountID
	acc.PublicKey = publicKey
	acc.UpdatedAt = at
	s.accounts[accountID] = acc
	return nil
}

func (s *MemoryStore) UpsertProfile(ctx context.Context, accountID, displayName, photoURL string, at time.Time) (*api.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[accountID]
	acc.AccountID = accountID
	acc.DisplayName = displayName
	acc.PhotoURL = photoURL
	acc.UpdatedAt = at
	s.accounts[accountID] = acc
	return &acc, nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, conversationID string, rec *api.MessageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.ids[rec.ID]; dup {
		return ErrExists
	}
	s.seq++
	s.convs[conversationID] = append(s.convs[conversationID], &storedMessage{seq: s.seq, rec: *rec})
	s.ids[rec.ID] = struct{}{}
	return nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, conversationID string) ([]api.MessageRecord, error) {
	s.mu.RLock()
	msgs := make([]*storedMessage, len(s.convs[conversationID]))
	copy(msgs, s.convs[conversationID])
	s.mu.RUnlock()

	sort.SliceStable(msgs, func(i, j int) bool {
		a, b := msgs[i].rec.CreatedAt, msgs[j].rec.CreatedAt
		if a.Equal(b) {
			return msgs[i].seq < msgs[j].seq
		}
		return a.Before(b)
	})

	out := make([]api.MessageRecord, len(msgs))
	for i, m := range msgs {
		out[i] = m.rec
		if m.rec.Attachment != nil {
			att := *m.rec.Attachment
			out[i].Attachment = &att
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for cid, msgs := range s.convs {
		kept := make([]*storedMessage, 0, len(msgs))
		for _, m := range msgs {
			if m.rec.ExpiresAfter && m.rec.CreatedAt.Before(cutoff) {
				delete(s.ids, m.rec.ID)
				removed++
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) == 0 {
			delete(s.convs, cid)
		} else {
			s.convs[cid] = kept
		}
	}
	return removed, nil
}
