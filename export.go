package securexchat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/securexchat/client-go/internal/crypto"
)

// ExportVersion is the current key export format version.
const ExportVersion = 1

// ExportedKey is an account's key pair in portable form, used to move an
// account to another device. It contains the private key; protect it.
type ExportedKey struct {
	// Version is the export format version. MUST be 1.
	Version int `json:"version"`
	// AccountID is the account the key belongs to.
	AccountID string `json:"accountId"`
	// PublicKey is standard base64 SPKI DER.
	PublicKey string `json:"publicKey"`
	// PrivateKey is standard base64 PKCS#8 DER.
	PrivateKey string `json:"privateKey"`
	// ExportedAt is informational only.
	ExportedAt time.Time `json:"exportedAt"`
}

// Validate checks the export format and that the two keys form a pair.
func (e *ExportedKey) Validate() error {
	if e.Version != ExportVersion {
		return fmt.Errorf("%w: unsupported version %d, expected %d", ErrInvalidImportData, e.Version, ExportVersion)
	}
	if e.AccountID == "" {
		return fmt.Errorf("%w: accountId is required", ErrInvalidImportData)
	}
	if _, err := crypto.ParsePublicKey(e.PublicKey); err != nil {
		return fmt.Errorf("%w: publicKey: %v", ErrInvalidImportData, err)
	}
	if _, err := crypto.ParsePrivateKey(e.PrivateKey); err != nil {
		return fmt.Errorf("%w: privateKey: %v", ErrInvalidImportData, err)
	}
	if !KeysMatch(e.PrivateKey, e.PublicKey) {
		return fmt.Errorf("%w: privateKey does not match publicKey", ErrInvalidImportData)
	}
	return nil
}

// ExportPrivateKey returns the account's key pair for transfer to another
// device. The public key is derived from the local private key.
func (c *Client) ExportPrivateKey(ctx context.Context) (*ExportedKey, error) {
	priv, err := c.keys.GetLocalPrivateKey(ctx, c.accountID)
	if err != nil {
		return nil, err
	}
	pub, err := DerivePublicKey(priv)
	if err != nil {
		return nil, fmt.Errorf("local key: %w", err)
	}
	return &ExportedKey{
		Version:    ExportVersion,
		AccountID:  c.accountID,
		PublicKey:  pub,
		PrivateKey: priv,
		ExportedAt: c.now().UTC(),
	}, nil
}

// ExportPrivateKeyToFile writes ExportPrivateKey's result as JSON with
// permissions 0600.
func (c *Client) ExportPrivateKeyToFile(ctx context.Context, filePath string) error {
	data, err := c.ExportPrivateKey(ctx)
	if err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key data: %w", err)
	}
	if err := os.WriteFile(filePath, jsonData, 0600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// ImportPrivateKey stores a private key given as base64 PKCS#8 or PKCS#1
// DER, or as a PEM block. The key must belong to the account's published
// public key; otherwise ErrKeyMismatch is returned and nothing is stored.
func (c *Client) ImportPrivateKey(ctx context.Context, privateKey string) error {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()

	normalized, err := crypto.NormalizePrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImportData, err)
	}

	published, err := c.keys.LookupPublicKey(ctx, c.accountID)
	if err != nil {
		return err
	}
	if published == "" {
		return ErrNoPublishedKey
	}
	if !KeysMatch(normalized, published) {
		return ErrKeyMismatch
	}
	return c.keys.StoreLocalPrivateKey(ctx, c.accountID, normalized)
}

// ImportExportedKey validates data, checks it is for this account, and
// imports its private key.
func (c *Client) ImportExportedKey(ctx context.Context, data *ExportedKey) error {
	if data == nil {
		return fmt.Errorf("%w: no data", ErrInvalidImportData)
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if data.AccountID != c.accountID {
		return fmt.Errorf("%w: key belongs to %q, not %q", ErrInvalidImportData, data.AccountID, c.accountID)
	}
	return c.ImportPrivateKey(ctx, data.PrivateKey)
}

// ImportPrivateKeyFromFile reads a file written by ExportPrivateKeyToFile.
func (c *Client) ImportPrivateKeyFromFile(ctx context.Context, filePath string) error {
	jsonData, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var data ExportedKey
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return fmt.Errorf("%w: parse key data: %v", ErrInvalidImportData, err)
	}
	return c.ImportExportedKey(ctx, &data)
}

// RotateOptions configures RotateKeys.
type RotateOptions struct {
	// Confirm acknowledges that messages encrypted to the old key become
	// unreadable. RotateKeys refuses to run without it.
	Confirm bool
}

// Rotation is the result of RotateKeys.
type Rotation struct {
	// PreviousPublicKey is the key that was published before, or "".
	PreviousPublicKey string
	PublicKey         string
}

// RotateKeys replaces the account's key pair: a new pair is generated,
// published, then stored locally. Every message encrypted to the previous
// key, sent or received, becomes unreadable on every device.
func (c *Client) RotateKeys(ctx context.Context, opts RotateOptions) (*Rotation, error) {
	if !opts.Confirm {
		return nil, ErrRotationNotConfirmed
	}

	c.keyMu.Lock()
	defer c.keyMu.Unlock()

	previous, err := c.keys.LookupPublicKey(ctx, c.accountID)
	if err != nil {
		return nil, err
	}

	kp, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	if err := c.keys.PublishPublicKey(ctx, c.accountID, kp.PublicKey); err != nil {
		return nil, err
	}
	if err := c.keys.StoreLocalPrivateKey(ctx, c.accountID, kp.PrivateKey); err != nil {
		return nil, err
	}
	c.logger.Warnf("rotated key pair for %s; earlier messages are no longer readable", c.accountID)

	return &Rotation{PreviousPublicKey: previous, PublicKey: kp.PublicKey}, nil
}
