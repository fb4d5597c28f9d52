package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/securexchat/client-go/internal/api"
)

// Account is a directory record.
type Account struct {
	bun.BaseModel `bun:"table:accounts"`

	AccountID   string    `bun:",pk"`
	PublicKey   string    `bun:",notnull,default:''"`
	DisplayName string    `bun:",notnull,default:''"`
	PhotoURL    string    `bun:",notnull,default:''"`
	UpdatedAt   time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

func (a *Account) toAPI() *api.Account {
	return &api.Account{
		AccountID:   a.AccountID,
		PublicKey:   a.PublicKey,
		DisplayName: a.DisplayName,
		PhotoURL:    a.PhotoURL,
		UpdatedAt:   a.UpdatedAt.UTC(),
	}
}

// Message is one stored envelope. Only ciphertext and attachment URLs are
// persisted.
type Message struct {
	bun.BaseModel `bun:"table:messages"`

	ID             string    `bun:",pk"`
	Seq            int64     `bun:",autoincrement"`
	ConversationID string    `bun:",notnull"`
	SenderID       string    `bun:",notnull"`
	CreatedAt      time.Time `bun:",notnull"`
	ExpiresAfter   bool      `bun:",notnull,default:false"`
	Kind           string    `bun:",notnull"`

	CiphertextForRecipient string `bun:",nullzero"`
	CiphertextForSender    string `bun:",nullzero"`
	Signature              string `bun:",nullzero"`
	AttachmentURL          string `bun:",nullzero"`
	AttachmentMediaType    string `bun:",nullzero"`
}

func messageFromAPI(conversationID string, rec *api.MessageRecord) *Message {
	m := &Message{
		ID:                     rec.ID,
		ConversationID:         conversationID,
		SenderID:               rec.SenderID,
		CreatedAt:              rec.CreatedAt,
		ExpiresAfter:           rec.ExpiresAfter,
		Kind:                   rec.Kind,
		CiphertextForRecipient: rec.CiphertextForRecipient,
		CiphertextForSender:    rec.CiphertextForSender,
		Signature:              rec.Signature,
	}
	if rec.Attachment != nil {
		m.AttachmentURL = rec.Attachment.URL
		m.AttachmentMediaType = rec.Attachment.MediaType
	}
	return m
}

func (m *Message) toAPI() api.MessageRecord {
	rec := api.MessageRecord{
		ID:                     m.ID,
		SenderID:               m.SenderID,
		CreatedAt:              m.CreatedAt.UTC(),
		ExpiresAfter:           m.ExpiresAfter,
		Kind:                   m.Kind,
		CiphertextForRecipient: m.CiphertextForRecipient,
		CiphertextForSender:    m.CiphertextForSender,
		Signature:              m.Signature,
	}
	if m.AttachmentURL != "" {
		rec.Attachment = &api.AttachmentRecord{URL: m.AttachmentURL, MediaType: m.AttachmentMediaType}
	}
	return rec
}
