package securexchat

//go:generate mockgen -destination=mocks/mock_securexchat.go -package=mocks github.com/securexchat/client-go Directory,MessageLog,LocalStore

import (
	"context"
	"errors"
	"fmt"
)

// LocalStore is device-local key/value storage for private keys. Values never
// leave the device.
type LocalStore interface {
	// Get returns the value under key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Directory is the shared account directory. Only the publicKey field of a
// record is touched through this interface.
type Directory interface {
	// PublishPublicKey merges publicKey into the account's record, creating
	// it if needed. Other fields of the record are left untouched.
	PublishPublicKey(ctx context.Context, accountID, publicKey string) error
	// LookupPublicKey returns the account's public key, or "" with a nil
	// error when the record or its key is absent.
	LookupPublicKey(ctx context.Context, accountID string) (string, error)
}

// PrivateKeyStorageKey returns the local store key holding an account's
// private key.
func PrivateKeyStorageKey(accountID string) string {
	return accountID + "_privateKey"
}

// KeyStore couples the local private key store with the public directory.
type KeyStore struct {
	local LocalStore
	dir   Directory
}

// NewKeyStore returns a KeyStore over local and dir.
func NewKeyStore(local LocalStore, dir Directory) *KeyStore {
	return &KeyStore{local: local, dir: dir}
}

// HasLocalPrivateKey reports whether a private key for accountID is stored
// on this device.
func (k *KeyStore) HasLocalPrivateKey(ctx context.Context, accountID string) (bool, error) {
	_, ok, err := k.local.Get(ctx, PrivateKeyStorageKey(accountID))
	if err != nil {
		return false, fmt.Errorf("read local key: %w", err)
	}
	return ok, nil
}

// GetLocalPrivateKey returns the stored private key, or a
// *PrivateKeyNotFoundError when there is none.
func (k *KeyStore) GetLocalPrivateKey(ctx context.Context, accountID string) (string, error) {
	v, ok, err := k.local.Get(ctx, PrivateKeyStorageKey(accountID))
	if err != nil {
		return "", fmt.Errorf("read local key: %w", err)
	}
	if !ok || v == "" {
		return "", &PrivateKeyNotFoundError{AccountID: accountID}
	}
	return v, nil
}

// StoreLocalPrivateKey writes privateKey to the local store.
func (k *KeyStore) StoreLocalPrivateKey(ctx context.Context, accountID, privateKey string) error {
	if err := k.local.Put(ctx, PrivateKeyStorageKey(accountID), privateKey); err != nil {
		return fmt.Errorf("store local key: %w", err)
	}
	return nil
}

// PublishPublicKey merges publicKey into the directory record.
func (k *KeyStore) PublishPublicKey(ctx context.Context, accountID, publicKey string) error {
	if err := k.dir.PublishPublicKey(ctx, accountID, publicKey); err != nil {
		return fmt.Errorf("publish public key: %w", wrapError(err))
	}
	return nil
}

// LookupPublicKey returns the directory key for accountID, or "" when absent.
func (k *KeyStore) LookupPublicKey(ctx context.Context, accountID string) (string, error) {
	pk, err := k.dir.LookupPublicKey(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrSignatureInvalid) {
			return "", err
		}
		return "", fmt.Errorf("lookup public key: %w", wrapError(err))
	}
	return pk, nil
}
