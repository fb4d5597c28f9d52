package securexchat

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/securexchat/client-go/internal/crypto"
)

// PublicKeyLookup resolves an account's published key. Directory satisfies it.
type PublicKeyLookup interface {
	LookupPublicKey(ctx context.Context, accountID string) (string, error)
}

// EnvelopeBuilder encrypts outgoing text for both conversation parties.
type EnvelopeBuilder struct {
	keys PublicKeyLookup
}

// NewEnvelopeBuilder returns a builder that resolves keys through keys.
func NewEnvelopeBuilder(keys PublicKeyLookup) *EnvelopeBuilder {
	return &EnvelopeBuilder{keys: keys}
}

// Build encrypts plaintext once for recipientID and once for senderID. If
// either party has no published key it returns a
// *RecipientKeyUnavailableError naming that party, checking the recipient
// first. No partial envelope is ever returned.
func (b *EnvelopeBuilder) Build(ctx context.Context, plaintext, senderID, recipientID string) (*TextEnvelope, error) {
	if len(plaintext) > MaxPlaintextSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrPlaintextTooLarge, len(plaintext), MaxPlaintextSize)
	}

	var recipientKey, senderKey string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pk, err := b.keys.LookupPublicKey(gctx, recipientID)
		recipientKey = pk
		return err
	})
	g.Go(func() error {
		pk, err := b.keys.LookupPublicKey(gctx, senderID)
		senderKey = pk
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, wrapError(err)
	}

	if recipientKey == "" {
		return nil, &RecipientKeyUnavailableError{AccountID: recipientID}
	}
	if senderKey == "" {
		return nil, &RecipientKeyUnavailableError{AccountID: senderID}
	}

	forRecipient, err := Encrypt(recipientKey, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt for %s: %w", recipientID, err)
	}
	forSender, err := Encrypt(senderKey, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt for %s: %w", senderID, err)
	}

	return &TextEnvelope{
		CiphertextForRecipient: forRecipient,
		CiphertextForSender:    forSender,
	}, nil
}

// BuildSigned is Build followed by a signature over the sender id and both
// ciphertexts, made with the sender's private key.
func (b *EnvelopeBuilder) BuildSigned(ctx context.Context, plaintext, senderID, recipientID, senderPrivateKey string) (*TextEnvelope, error) {
	priv, err := crypto.ParsePrivateKey(senderPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}

	env, err := b.Build(ctx, plaintext, senderID, recipientID)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.SignPKCS1v15(priv, crypto.EnvelopeTranscript(senderID, env.CiphertextForRecipient, env.CiphertextForSender))
	if err != nil {
		return nil, fmt.Errorf("sign envelope: %w", err)
	}
	env.Signature = crypto.ToBase64(sig)
	return env, nil
}

// verifyTextSignature checks t.Signature against senderPublicKey.
func verifyTextSignature(t TextEnvelope, senderID, senderPublicKey string) error {
	pub, err := crypto.ParsePublicKey(senderPublicKey)
	if err != nil {
		return &SignatureVerificationError{AccountID: senderID, Message: "sender key: " + err.Error()}
	}
	sig, err := crypto.FromBase64(t.Signature)
	if err != nil {
		return &SignatureVerificationError{AccountID: senderID, Message: "malformed signature"}
	}
	if err := crypto.VerifyPKCS1v15(pub, crypto.EnvelopeTranscript(senderID, t.CiphertextForRecipient, t.CiphertextForSender), sig); err != nil {
		return &SignatureVerificationError{AccountID: senderID, Message: err.Error()}
	}
	return nil
}
