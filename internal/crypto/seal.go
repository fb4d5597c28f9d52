package crypto

import (
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// SealVersion is the current sealed secret format version.
const SealVersion = 1

// SealedSecret is a secret encrypted under a passphrase-derived key.
// All byte fields are URL-safe base64.
type SealedSecret struct {
	Version    int    `json:"version"`
	KDF        string `json:"kdf"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// deriveKEK derives a key-encryption key from a passphrase and salt using Argon2id.
func deriveKEK(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Threads, SealKeySize)
}

// Seal encrypts plaintext with ChaCha20-Poly1305 under a key derived from
// passphrase. The KDF name is bound as associated data.
func Seal(passphrase string, plaintext []byte) (*SealedSecret, error) {
	salt := make([]byte, SealSaltSize)
	if _, err := io.ReadFull(random(), salt); err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	kek := deriveKEK(passphrase, salt)
	defer zero(kek)

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(random(), nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	ct := aead.Seal(nil, nonce, plaintext, []byte(SealKDF))

	return &SealedSecret{
		Version:    SealVersion,
		KDF:        SealKDF,
		Salt:       ToBase64URL(salt),
		Nonce:      ToBase64URL(nonce),
		Ciphertext: ToBase64URL(ct),
	}, nil
}

// Open decrypts a SealedSecret. A wrong passphrase and a tampered file both
// return ErrDecryptionFailed.
func Open(passphrase string, s *SealedSecret) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil sealed secret", ErrInvalidPayload)
	}
	if s.Version != SealVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidPayload, s.Version)
	}
	if s.KDF != SealKDF {
		return nil, fmt.Errorf("%w: unsupported kdf %q", ErrInvalidPayload, s.KDF)
	}
	salt, err := FromBase64URL(s.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: decode salt", ErrInvalidPayload)
	}
	if len(salt) != SealSaltSize {
		return nil, fmt.Errorf("%w: salt is %d bytes", ErrInvalidSize, len(salt))
	}
	nonce, err := FromBase64URL(s.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: decode nonce", ErrInvalidPayload)
	}
	if len(nonce) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("%w: nonce is %d bytes", ErrInvalidSize, len(nonce))
	}
	ct, err := FromBase64URL(s.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: decode ciphertext", ErrInvalidPayload)
	}

	kek := deriveKEK(passphrase, salt)
	defer zero(kek)

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ct, []byte(SealKDF))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
