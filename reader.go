package securexchat

import (
	"context"
	"fmt"
)

// VerifyMode selects how the reader treats message signatures.
type VerifyMode int

const (
	// VerifyNone ignores signatures.
	VerifyNone VerifyMode = iota
	// VerifyIfSigned verifies signatures that are present and accepts
	// unsigned messages.
	VerifyIfSigned
	// VerifyRequired treats unsigned messages from other accounts as
	// unreadable.
	VerifyRequired
)

func (m VerifyMode) String() string {
	switch m {
	case VerifyNone:
		return "none"
	case VerifyIfSigned:
		return "if-signed"
	case VerifyRequired:
		return "required"
	}
	return "unknown"
}

// ParseVerifyMode parses the String form of a VerifyMode. The empty string
// is VerifyNone.
func ParseVerifyMode(s string) (VerifyMode, error) {
	switch s {
	case "", "none":
		return VerifyNone, nil
	case "if-signed":
		return VerifyIfSigned, nil
	case "required":
		return VerifyRequired, nil
	}
	return VerifyNone, fmt.Errorf("unknown verify mode %q", s)
}

// ReadStatus describes the outcome of resolving an envelope.
type ReadStatus string

const (
	StatusReadable   ReadStatus = "readable"
	StatusUnreadable ReadStatus = "unreadable"
	StatusUnverified ReadStatus = "unverified"
	// StatusNoText is reported for attachment-only messages.
	StatusNoText ReadStatus = "no_text"
)

// Half names which ciphertext of a TextEnvelope produced the plaintext.
type Half string

const (
	HalfNone      Half = ""
	HalfRecipient Half = "recipient"
	HalfSender    Half = "sender"
)

// Resolution is the detailed result of EnvelopeReader.ResolveDetail.
type Resolution struct {
	// Text is the plaintext, or the placeholder when not readable.
	Text     string
	Readable bool
	Half     Half
	Status   ReadStatus
	// Err is the first failure swallowed while resolving, for diagnostics.
	Err error
}

// EnvelopeReader turns stored envelopes back into plaintext for the local
// account. It never fails: anything it cannot read becomes the placeholder.
type EnvelopeReader struct {
	placeholder string
	verify      VerifyMode
	keys        PublicKeyLookup
	logger      Logger
}

// ReaderOption configures an EnvelopeReader.
type ReaderOption func(*EnvelopeReader)

// ReaderPlaceholder sets the text returned for unreadable messages.
func ReaderPlaceholder(s string) ReaderOption {
	return func(r *EnvelopeReader) {
		r.placeholder = s
	}
}

// ReaderVerification enables signature checks against keys from the directory.
func ReaderVerification(mode VerifyMode, keys PublicKeyLookup) ReaderOption {
	return func(r *EnvelopeReader) {
		r.verify = mode
		r.keys = keys
	}
}

// ReaderLogger sets where swallowed failures are reported.
func ReaderLogger(l Logger) ReaderOption {
	return func(r *EnvelopeReader) {
		r.logger = l
	}
}

// NewEnvelopeReader returns a reader. By default the placeholder is "" and
// signatures are not checked.
func NewEnvelopeReader(opts ...ReaderOption) *EnvelopeReader {
	r := &EnvelopeReader{logger: nopLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	if r.keys == nil {
		r.verify = VerifyNone
	}
	if r.logger == nil {
		r.logger = nopLogger{}
	}
	return r
}

// Resolve returns the plaintext of env for localAccountID, or the
// placeholder if it cannot be read. It never returns an error.
func (r *EnvelopeReader) Resolve(env *MessageEnvelope, localAccountID, localPrivateKey string) string {
	return r.ResolveDetail(context.Background(), env, localAccountID, localPrivateKey).Text
}

// ResolveDetail is Resolve with the outcome spelled out. ctx bounds the
// directory lookup made for signature verification.
//
// The sender reads the sender half. Anyone else reads the recipient half and
// falls back to the sender half, which also covers a sender whose local
// account id differs from the one the message was sent under.
func (r *EnvelopeReader) ResolveDetail(ctx context.Context, env *MessageEnvelope, localAccountID, localPrivateKey string) (res Resolution) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warnf("resolve message: recovered from panic: %v", p)
			res = r.unreadable(StatusUnreadable, nil)
		}
	}()

	if env == nil {
		return r.unreadable(StatusUnreadable, nil)
	}
	text, ok := env.Text()
	if !ok {
		return Resolution{Status: StatusNoText}
	}

	own := localAccountID == env.SenderID
	if !own {
		if err := r.checkSignature(ctx, env, text); err != nil {
			r.logger.Debugf("message %s from %s: %v", env.ID, env.SenderID, err)
			return r.unreadable(StatusUnverified, err)
		}
	}

	var lastErr error
	if !own {
		pt, err := Decrypt(localPrivateKey, text.CiphertextForRecipient)
		if err == nil {
			return Resolution{Text: pt, Readable: true, Half: HalfRecipient, Status: StatusReadable}
		}
		lastErr = err
	}
	pt, err := Decrypt(localPrivateKey, text.CiphertextForSender)
	if err == nil {
		return Resolution{Text: pt, Readable: true, Half: HalfSender, Status: StatusReadable}
	}
	if lastErr == nil {
		lastErr = err
	}

	r.logger.Debugf("message %s unreadable for %s: %v", env.ID, localAccountID, lastErr)
	return r.unreadable(StatusUnreadable, lastErr)
}

func (r *EnvelopeReader) checkSignature(ctx context.Context, env *MessageEnvelope, text TextEnvelope) error {
	switch r.verify {
	case VerifyNone:
		return nil
	case VerifyIfSigned:
		if text.Signature == "" {
			return nil
		}
	case VerifyRequired:
		if text.Signature == "" {
			return &SignatureVerificationError{AccountID: env.SenderID, Message: "message is not signed"}
		}
	}

	pk, err := r.keys.LookupPublicKey(ctx, env.SenderID)
	if err != nil {
		return err
	}
	if pk == "" {
		return &RecipientKeyUnavailableError{AccountID: env.SenderID}
	}
	return verifyTextSignature(text, env.SenderID, pk)
}

func (r *EnvelopeReader) unreadable(status ReadStatus, err error) Resolution {
	return Resolution{Text: r.placeholder, Status: status, Err: err}
}
