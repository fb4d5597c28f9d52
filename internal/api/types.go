package api

import (
	"fmt"
	"time"
)

// Message body kinds carried in MessageRecord.Kind.
const (
	KindText  = "text"
	KindImage = "image"
	KindMixed = "mixed"
)

// Attachment media types.
const (
	MediaImage    = "image"
	MediaDocument = "document"
)

// ErrorResponse is the JSON body of every non-2xx relay response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// HealthResponse represents the /api/health response.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// ServerInfo represents the /api/server-info response.
type ServerInfo struct {
	// DirectorySigningKey is the relay's ML-DSA-65 public key in URL-safe
	// base64. Empty when the relay does not attest lookups.
	DirectorySigningKey string `json:"directorySigningKey,omitempty"`
	RetentionSeconds    int    `json:"retentionSeconds"`
}

// Account is a directory record.
type Account struct {
	AccountID   string    `json:"accountId"`
	PublicKey   string    `json:"publicKey,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PublicKeyRecord represents the GET /api/accounts/{id}/public-key response.
type PublicKeyRecord struct {
	AccountID string `json:"accountId"`
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature,omitempty"`
}

// PublishKeyRequest represents the PUT /api/accounts/{id}/public-key body.
type PublishKeyRequest struct {
	PublicKey string `json:"publicKey"`
}

// ProfileRequest represents the PUT /api/accounts/{id}/profile body.
type ProfileRequest struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
}

// AttachmentRecord is an attachment reference. Blob upload happens elsewhere;
// only the URL is relayed.
type AttachmentRecord struct {
	URL       string `json:"url"`
	MediaType string `json:"mediaType"`
}

// MessageRecord is the wire form of a stored message envelope.
type MessageRecord struct {
	ID                     string            `json:"id"`
	SenderID               string            `json:"senderId"`
	CreatedAt              time.Time         `json:"createdAt"`
	ExpiresAfter           bool              `json:"expiresAfter"`
	Kind                   string            `json:"kind"`
	CiphertextForRecipient string            `json:"ciphertextForRecipient,omitempty"`
	CiphertextForSender    string            `json:"ciphertextForSender,omitempty"`
	Signature              string            `json:"signature,omitempty"`
	Attachment             *AttachmentRecord `json:"attachment,omitempty"`
}

// Validate checks that the record's fields agree with its kind. Text bodies
// must carry both ciphertexts.
func (m *MessageRecord) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("message id is required")
	}
	if m.SenderID == "" {
		return fmt.Errorf("sender id is required")
	}

	hasText := m.CiphertextForRecipient != "" || m.CiphertextForSender != ""
	if hasText && (m.CiphertextForRecipient == "" || m.CiphertextForSender == "") {
		return fmt.Errorf("message %s: ciphertext pair is incomplete", m.ID)
	}

	switch m.Kind {
	case KindText:
		if !hasText {
			return fmt.Errorf("message %s: text body has no ciphertext", m.ID)
		}
		if m.Attachment != nil {
			return fmt.Errorf("message %s: text body carries an attachment", m.ID)
		}
	case KindImage:
		if hasText || m.Signature != "" {
			return fmt.Errorf("message %s: image body carries ciphertext", m.ID)
		}
		if err := m.Attachment.validate(); err != nil {
			return fmt.Errorf("message %s: %w", m.ID, err)
		}
	case KindMixed:
		if !hasText {
			return fmt.Errorf("message %s: mixed body has no ciphertext", m.ID)
		}
		if err := m.Attachment.validate(); err != nil {
			return fmt.Errorf("message %s: %w", m.ID, err)
		}
	default:
		return fmt.Errorf("message %s: unknown kind %q", m.ID, m.Kind)
	}
	return nil
}

// SameContent reports whether o is the same message as m: same id, sender,
// kind, expiry flag, ciphertexts, signature and attachment. CreatedAt is
// ignored since the relay assigns it.
func (m *MessageRecord) SameContent(o *MessageRecord) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.ID != o.ID || m.SenderID != o.SenderID || m.Kind != o.Kind || m.ExpiresAfter != o.ExpiresAfter {
		return false
	}
	if m.CiphertextForRecipient != o.CiphertextForRecipient || m.CiphertextForSender != o.CiphertextForSender {
		return false
	}
	if m.Signature != o.Signature {
		return false
	}
	if m.Attachment == nil || o.Attachment == nil {
		return m.Attachment == o.Attachment
	}
	return *m.Attachment == *o.Attachment
}

func (a *AttachmentRecord) validate() error {
	if a == nil || a.URL == "" {
		return fmt.Errorf("attachment url is required")
	}
	switch a.MediaType {
	case MediaImage, MediaDocument:
		return nil
	default:
		return fmt.Errorf("unknown attachment media type %q", a.MediaType)
	}
}

// MessageList represents the GET /api/conversations/{cid}/messages response.
type MessageList struct {
	Messages []MessageRecord `json:"messages"`
}
