package securexchat

import (
	"context"
	"errors"
	"fmt"

	"github.com/securexchat/client-go/internal/crypto"
)

// ProvisionResult is the outcome of Client.Provision.
type ProvisionResult int

const (
	// ProvisionCreated means no key was published; a new pair was generated,
	// published and stored locally.
	ProvisionCreated ProvisionResult = iota + 1
	// ProvisionReady means the local key matches the published key.
	ProvisionReady
	// ProvisionNeedsImport means a key is published but this device has no
	// private key. Import it, or rotate to abandon old messages.
	ProvisionNeedsImport
	// ProvisionMismatch means the local key belongs to a different public key
	// than the one published.
	ProvisionMismatch
)

func (r ProvisionResult) String() string {
	switch r {
	case ProvisionCreated:
		return "created"
	case ProvisionReady:
		return "ready"
	case ProvisionNeedsImport:
		return "needs-import"
	case ProvisionMismatch:
		return "mismatch"
	}
	return "unknown"
}

// Provision makes sure the account has key material. Keys are generated
// only when the directory has no public key for the account; an existing
// published key is never replaced here.
//
// Provisioning is not atomic. If publishing succeeds and storing the private
// key fails, the next call reports ProvisionNeedsImport.
func (c *Client) Provision(ctx context.Context) (ProvisionResult, error) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()

	published, err := c.keys.LookupPublicKey(ctx, c.accountID)
	if err != nil {
		return 0, err
	}

	if published == "" {
		kp, err := GenerateKeyPair()
		if err != nil {
			return 0, err
		}
		if err := c.keys.PublishPublicKey(ctx, c.accountID, kp.PublicKey); err != nil {
			return 0, err
		}
		if err := c.keys.StoreLocalPrivateKey(ctx, c.accountID, kp.PrivateKey); err != nil {
			return 0, err
		}
		c.logger.Debugf("provisioned new key pair for %s", c.accountID)
		return ProvisionCreated, nil
	}

	priv, err := c.keys.GetLocalPrivateKey(ctx, c.accountID)
	if errors.Is(err, ErrPrivateKeyNotFound) {
		return ProvisionNeedsImport, nil
	}
	if err != nil {
		return 0, err
	}
	if !KeysMatch(priv, published) {
		c.logger.Warnf("local private key for %s does not match the published key", c.accountID)
		return ProvisionMismatch, nil
	}
	return ProvisionReady, nil
}

// VerifyLocalKey reports whether the local private key belongs to the
// published public key. It returns a *PrivateKeyNotFoundError when there is
// no local key and ErrNoPublishedKey when nothing is published.
func (c *Client) VerifyLocalKey(ctx context.Context) (bool, error) {
	priv, err := c.keys.GetLocalPrivateKey(ctx, c.accountID)
	if err != nil {
		return false, err
	}
	published, err := c.keys.LookupPublicKey(ctx, c.accountID)
	if err != nil {
		return false, err
	}
	if published == "" {
		return false, ErrNoPublishedKey
	}

	derived, err := DerivePublicKey(priv)
	if err != nil {
		return false, fmt.Errorf("local key: %w", err)
	}
	return crypto.PublicKeysEqual(derived, published), nil
}
