package securexchat

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/securexchat/client-go/internal/api"
)

// MediaType classifies an attachment.
type MediaType string

const (
	// MediaImage is an inline image.
	MediaImage MediaType = api.MediaImage
	// MediaDocument is a document such as a PDF.
	MediaDocument MediaType = api.MediaDocument
)

// Attachment references a file uploaded elsewhere. Only its URL travels
// through the message log and it is not encrypted.
type Attachment struct {
	URL       string
	MediaType MediaType
}

func (a Attachment) validate() error {
	if a.URL == "" {
		return fmt.Errorf("attachment url is required")
	}
	switch a.MediaType {
	case MediaImage, MediaDocument:
		return nil
	default:
		return fmt.Errorf("unknown attachment media type %q", a.MediaType)
	}
}

// Body is the content of a MessageEnvelope: a TextEnvelope, an ImageEnvelope
// or a MixedEnvelope.
type Body interface {
	kind() string
}

// TextEnvelope holds one plaintext encrypted twice: once for the recipient
// and once for the sender. Both ciphertexts are always present.
type TextEnvelope struct {
	CiphertextForRecipient string
	CiphertextForSender    string
	// Signature is the sender's optional RSA PKCS#1 v1.5 signature over
	// both ciphertexts, in standard base64.
	Signature string
}

// ImageEnvelope carries only an attachment.
type ImageEnvelope struct {
	Attachment Attachment
}

// MixedEnvelope carries encrypted text alongside an attachment.
type MixedEnvelope struct {
	Text       TextEnvelope
	Attachment Attachment
}

func (TextEnvelope) kind() string  { return api.KindText }
func (ImageEnvelope) kind() string { return api.KindImage }
func (MixedEnvelope) kind() string { return api.KindMixed }

// MessageEnvelope is one stored message. Envelopes are immutable once
// appended; they disappear only through expiry.
type MessageEnvelope struct {
	ID       string
	SenderID string
	// CreatedAt is assigned by the message log on append.
	CreatedAt time.Time
	// ExpiresAfter marks a disappearing message.
	ExpiresAfter bool
	Body         Body
}

// Text returns the encrypted text part, if the body has one.
func (e *MessageEnvelope) Text() (TextEnvelope, bool) {
	switch b := e.Body.(type) {
	case TextEnvelope:
		return b, true
	case MixedEnvelope:
		return b.Text, true
	}
	return TextEnvelope{}, false
}

// Attachment returns the attachment, if the body has one.
func (e *MessageEnvelope) Attachment() (Attachment, bool) {
	switch b := e.Body.(type) {
	case ImageEnvelope:
		return b.Attachment, true
	case MixedEnvelope:
		return b.Attachment, true
	}
	return Attachment{}, false
}

// MarshalJSON encodes the envelope with a "kind" discriminator.
func (e MessageEnvelope) MarshalJSON() ([]byte, error) {
	rec, err := e.record()
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes and validates an envelope. A text body missing one of
// its two ciphertexts is rejected.
func (e *MessageEnvelope) UnmarshalJSON(data []byte) error {
	var rec api.MessageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	env, err := envelopeFromRecord(&rec)
	if err != nil {
		return err
	}
	*e = *env
	return nil
}

func (e *MessageEnvelope) record() (*api.MessageRecord, error) {
	rec := &api.MessageRecord{
		ID:           e.ID,
		SenderID:     e.SenderID,
		CreatedAt:    e.CreatedAt,
		ExpiresAfter: e.ExpiresAfter,
	}

	switch b := e.Body.(type) {
	case TextEnvelope:
		setText(rec, b)
	case ImageEnvelope:
		rec.Attachment = attachmentRecord(b.Attachment)
	case MixedEnvelope:
		setText(rec, b.Text)
		rec.Attachment = attachmentRecord(b.Attachment)
	case nil:
		return nil, fmt.Errorf("message %s has no body", e.ID)
	default:
		return nil, fmt.Errorf("message %s: unsupported body %T", e.ID, e.Body)
	}
	rec.Kind = e.Body.kind()

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func envelopeFromRecord(rec *api.MessageRecord) (*MessageEnvelope, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	env := &MessageEnvelope{
		ID:           rec.ID,
		SenderID:     rec.SenderID,
		CreatedAt:    rec.CreatedAt,
		ExpiresAfter: rec.ExpiresAfter,
	}
	text := TextEnvelope{
		CiphertextForRecipient: rec.CiphertextForRecipient,
		CiphertextForSender:    rec.CiphertextForSender,
		Signature:              rec.Signature,
	}

	switch rec.Kind {
	case api.KindText:
		env.Body = text
	case api.KindImage:
		env.Body = ImageEnvelope{Attachment: attachmentFromRecord(rec.Attachment)}
	case api.KindMixed:
		env.Body = MixedEnvelope{Text: text, Attachment: attachmentFromRecord(rec.Attachment)}
	}
	return env, nil
}

func setText(rec *api.MessageRecord, t TextEnvelope) {
	rec.CiphertextForRecipient = t.CiphertextForRecipient
	rec.CiphertextForSender = t.CiphertextForSender
	rec.Signature = t.Signature
}

func attachmentRecord(a Attachment) *api.AttachmentRecord {
	return &api.AttachmentRecord{URL: a.URL, MediaType: string(a.MediaType)}
}

func attachmentFromRecord(a *api.AttachmentRecord) Attachment {
	return Attachment{URL: a.URL, MediaType: MediaType(a.MediaType)}
}
