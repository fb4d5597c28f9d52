package securexchat

import (
	"errors"
	"fmt"

	"github.com/securexchat/client-go/internal/crypto"
)

// KeyPair is an account's key material in transport encoding.
type KeyPair struct {
	// PublicKey is standard base64 of the PKIX (SPKI) DER encoding.
	PublicKey string
	// PrivateKey is standard base64 of the PKCS#8 DER encoding. It never
	// leaves the device except through an explicit export.
	PrivateKey string
}

// GenerateKeyPair creates a fresh RSA-2048 key pair (e=65537) for RSA-OAEP
// with SHA-256. On failure it returns a *KeyGenerationError.
func GenerateKeyPair() (*KeyPair, error) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, &KeyGenerationError{Err: err}
	}
	if !crypto.ValidateKeyPair(kp) {
		return nil, &KeyGenerationError{Err: errors.New("generated key pair failed validation")}
	}
	return &KeyPair{PublicKey: kp.PublicKeyB64, PrivateKey: kp.PrivateKeyB64}, nil
}

// DerivePublicKey returns the public key belonging to privateKey.
func DerivePublicKey(privateKey string) (string, error) {
	kp, err := crypto.KeyPairFromPrivateKey(privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImportData, err)
	}
	return kp.PublicKeyB64, nil
}

// KeysMatch reports whether privateKey is the private half of publicKey.
func KeysMatch(privateKey, publicKey string) bool {
	return crypto.MatchesPublicKey(privateKey, publicKey)
}
