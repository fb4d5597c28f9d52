package crypto

import (
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
)

// MaxPlaintextSizeFor returns the OAEP SHA-256 plaintext limit for pub.
func MaxPlaintextSizeFor(pub *rsa.PublicKey) int {
	return pub.Size() - 2*OAEPHashSize - 2
}

// EncryptOAEP encrypts plaintext for pub with RSA-OAEP SHA-256 and no label.
func EncryptOAEP(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	if limit := MaxPlaintextSizeFor(pub); len(plaintext) > limit {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrPlaintextTooLarge, len(plaintext), limit)
	}
	return rsa.EncryptOAEP(sha256.New(), random(), pub, plaintext, nil)
}

// DecryptOAEP reverses EncryptOAEP. Every failure collapses to
// ErrDecryptionFailed so callers cannot tell padding errors apart.
func DecryptOAEP(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) != priv.Size() {
		return nil, fmt.Errorf("%w: ciphertext is %d bytes, want %d", ErrDecryptionFailed, len(ciphertext), priv.Size())
	}
	plaintext, err := rsa.DecryptOAEP(sha256.New(), nil, priv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
