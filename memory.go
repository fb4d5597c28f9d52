package securexchat

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DirectoryRecord is one account's entry in a MemoryDirectory.
type DirectoryRecord struct {
	AccountID   string
	PublicKey   string
	DisplayName string
	PhotoURL    string
	UpdatedAt   time.Time
}

// MemoryDirectory is an in-process Directory. It is safe for concurrent use.
type MemoryDirectory struct {
	mu      sync.RWMutex
	records map[string]*DirectoryRecord
	now     func() time.Time
}

// NewMemoryDirectory returns an empty MemoryDirectory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		records: make(map[string]*DirectoryRecord),
		now:     time.Now,
	}
}

func (d *MemoryDirectory) record(accountID string) *DirectoryRecord {
	rec, ok := d.records[accountID]
	if !ok {
		rec = &DirectoryRecord{AccountID: accountID}
		d.records[accountID] = rec
	}
	return rec
}

// PublishPublicKey implements Directory.
func (d *MemoryDirectory) PublishPublicKey(ctx context.Context, accountID, publicKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	rec := d.record(accountID)
	rec.PublicKey = publicKey
	rec.UpdatedAt = d.now()
	return nil
}

// LookupPublicKey implements Directory.
func (d *MemoryDirectory) LookupPublicKey(ctx context.Context, accountID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if rec, ok := d.records[accountID]; ok {
		return rec.PublicKey, nil
	}
	return "", nil
}

// SetProfile merges profile fields into the account's record without
// touching its public key.
func (d *MemoryDirectory) SetProfile(ctx context.Context, accountID, displayName, photoURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	rec := d.record(accountID)
	rec.DisplayName = displayName
	rec.PhotoURL = photoURL
	rec.UpdatedAt = d.now()
	return nil
}

// Record returns a copy of the account's record.
func (d *MemoryDirectory) Record(accountID string) (DirectoryRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.records[accountID]
	if !ok {
		return DirectoryRecord{}, false
	}
	return *rec, true
}

// MemoryMessageLog is an in-process MessageLog. It is safe for concurrent use.
type MemoryMessageLog struct {
	mu    sync.Mutex
	convs map[string][]*MessageEnvelope
	ids   map[string]struct{}
	now   func() time.Time
	last  time.Time
}

// NewMemoryMessageLog returns an empty MemoryMessageLog.
func NewMemoryMessageLog() *MemoryMessageLog {
	return &MemoryMessageLog{
		convs: make(map[string][]*MessageEnvelope),
		ids:   make(map[string]struct{}),
		now:   time.Now,
	}
}

// Append implements MessageLog. CreatedAt is strictly increasing across
// appends so that list order equals append order.
func (l *MemoryMessageLog) Append(ctx context.Context, conversationID string, env *MessageEnvelope) (*MessageEnvelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := env.record(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.ids[env.ID]; dup {
		return nil, ErrMessageExists
	}

	stamp := l.now().UTC()
	if !stamp.After(l.last) {
		stamp = l.last.Add(time.Microsecond)
	}
	l.last = stamp

	stored := *env
	stored.CreatedAt = stamp
	l.convs[conversationID] = append(l.convs[conversationID], &stored)
	l.ids[env.ID] = struct{}{}

	out := stored
	return &out, nil
}

// List implements MessageLog.
func (l *MemoryMessageLog) List(ctx context.Context, conversationID string) ([]*MessageEnvelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	msgs := l.convs[conversationID]
	out := make([]*MessageEnvelope, len(msgs))
	for i, m := range msgs {
		cp := *m
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteExpired removes disappearing messages created before cutoff and
// returns how many were removed.
func (l *MemoryMessageLog) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for cid, msgs := range l.convs {
		kept := msgs[:0]
		for _, m := range msgs {
			if m.ExpiresAfter && m.CreatedAt.Before(cutoff) {
				delete(l.ids, m.ID)
				removed++
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) == 0 {
			delete(l.convs, cid)
		} else {
			l.convs[cid] = kept
		}
	}
	return removed, nil
}
