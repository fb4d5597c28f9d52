package securexchat

import (
	"context"
	"errors"
	"net/http"

	"github.com/securexchat/client-go/internal/api"
	"github.com/securexchat/client-go/internal/apierrors"
	"github.com/securexchat/client-go/internal/crypto"
)

// RemoteDirectory is a Directory backed by the relay.
type RemoteDirectory struct {
	api *api.Client
	// signerKey pins the relay's ML-DSA-65 attestation key. When set, every
	// lookup must carry a valid attestation.
	signerKey string
}

// LookupPublicKey implements Directory. A missing record or key is not an
// error. With a pinned signer key, an unattested or badly attested key
// yields a *SignatureVerificationError.
func (d *RemoteDirectory) LookupPublicKey(ctx context.Context, accountID string) (string, error) {
	rec, err := d.api.GetPublicKey(ctx, accountID)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return "", nil
		}
		return "", wrapError(err)
	}
	if rec.PublicKey == "" {
		return "", nil
	}

	if d.signerKey != "" {
		if rec.Signature == "" {
			return "", &SignatureVerificationError{AccountID: accountID, Message: "directory record is not attested"}
		}
		if err := crypto.VerifyDirectoryRecord(d.signerKey, accountID, rec.PublicKey, rec.Signature); err != nil {
			return "", &SignatureVerificationError{AccountID: accountID, Message: "directory attestation: " + err.Error()}
		}
	}
	return rec.PublicKey, nil
}

// PublishPublicKey implements Directory.
func (d *RemoteDirectory) PublishPublicKey(ctx context.Context, accountID, publicKey string) error {
	return wrapError(d.api.PutPublicKey(ctx, accountID, publicKey))
}

// SetProfile merges display name and photo into the account's record.
func (d *RemoteDirectory) SetProfile(ctx context.Context, accountID, displayName, photoURL string) error {
	_, err := d.api.PutProfile(ctx, accountID, api.ProfileRequest{DisplayName: displayName, PhotoURL: photoURL})
	return wrapError(err)
}

// RemoteMessageLog is a MessageLog backed by the relay.
type RemoteMessageLog struct {
	api    *api.Client
	logger Logger
}

// Append implements MessageLog. Appends are safe to retry: when the relay
// reports the id as taken and the stored message is this one, the stored
// copy is returned.
func (l *RemoteMessageLog) Append(ctx context.Context, conversationID string, env *MessageEnvelope) (*MessageEnvelope, error) {
	rec, err := env.record()
	if err != nil {
		return nil, err
	}
	stored, err := l.api.AppendMessage(ctx, conversationID, rec)
	if err != nil {
		var apiErr *apierrors.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			return l.findStored(ctx, conversationID, rec)
		}
		return nil, wrapError(err)
	}
	return envelopeFromRecord(stored)
}

// findStored looks for rec in the conversation after a conflict.
func (l *RemoteMessageLog) findStored(ctx context.Context, conversationID string, rec *api.MessageRecord) (*MessageEnvelope, error) {
	recs, err := l.api.ListMessages(ctx, conversationID)
	if err != nil {
		l.log().Debugf("append %s: list after conflict: %v", rec.ID, err)
		return nil, ErrMessageExists
	}
	for i := range recs {
		if recs[i].ID != rec.ID {
			continue
		}
		if !recs[i].SameContent(rec) {
			break
		}
		return envelopeFromRecord(&recs[i])
	}
	return nil, ErrMessageExists
}

// List implements MessageLog. Records that fail validation are skipped.
func (l *RemoteMessageLog) List(ctx context.Context, conversationID string) ([]*MessageEnvelope, error) {
	recs, err := l.api.ListMessages(ctx, conversationID)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, wrapError(err)
	}

	out := make([]*MessageEnvelope, 0, len(recs))
	for i := range recs {
		env, err := envelopeFromRecord(&recs[i])
		if err != nil {
			l.log().Debugf("conversation %s: skipping message %s: %v", conversationID, recs[i].ID, err)
			continue
		}
		out = append(out, env)
	}
	return out, nil
}

func (l *RemoteMessageLog) log() Logger {
	if l.logger == nil {
		return nopLogger{}
	}
	return l.logger
}
