package securexchat

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/securexchat/client-go/internal/crypto"
)

// MaxPlaintextSize is the largest UTF-8 message, in bytes, that fits one
// RSA-OAEP SHA-256 block under a 2048-bit key.
const MaxPlaintextSize = crypto.MaxPlaintextSize

// Encrypt encrypts plaintext for the holder of publicKey and returns the
// ciphertext in standard base64. Every call uses fresh randomness, so equal
// inputs yield different ciphertexts.
func Encrypt(publicKey, plaintext string) (string, error) {
	pub, err := crypto.ParsePublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	ct, err := crypto.EncryptOAEP(pub, []byte(plaintext))
	if err != nil {
		if errors.Is(err, crypto.ErrPlaintextTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("encrypt: %w", err)
	}
	return crypto.ToBase64(ct), nil
}

// Decrypt reverses Encrypt. Any failure, whether a malformed ciphertext, a
// malformed or wrong key, or corrupted bytes, yields a *DecryptionError and
// no partial output.
func Decrypt(privateKey, ciphertext string) (string, error) {
	raw, err := crypto.FromBase64(ciphertext)
	if err != nil {
		return "", &DecryptionError{Stage: StageDecode, Err: err}
	}
	priv, err := crypto.ParsePrivateKey(privateKey)
	if err != nil {
		return "", &DecryptionError{Stage: StageKey, Err: err}
	}
	pt, err := crypto.DecryptOAEP(priv, raw)
	if err != nil {
		return "", &DecryptionError{Stage: StageOAEP, Err: err}
	}
	if !utf8.Valid(pt) {
		return "", &DecryptionError{Stage: StageUTF8, Err: errors.New("plaintext is not valid UTF-8")}
	}
	return string(pt), nil
}
