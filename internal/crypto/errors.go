package crypto

import "errors"

var (
	// ErrInvalidPublicKey is returned when a public key cannot be decoded or
	// is not an RSA key.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidPrivateKey is returned when a private key cannot be decoded or
	// is not an RSA key.
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrKeySize is returned when an RSA key does not have the expected modulus.
	ErrKeySize = errors.New("unexpected RSA key size")

	// ErrPlaintextTooLarge is returned when a plaintext does not fit in one
	// OAEP block.
	ErrPlaintextTooLarge = errors.New("plaintext too large")

	// ErrDecryptionFailed is returned when decryption fails.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrSignatureVerificationFailed is returned when signature verification fails.
	ErrSignatureVerificationFailed = errors.New("signature verification failed")

	// ErrInvalidPayload is returned when a sealed payload is malformed.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrInvalidSize is returned when a decoded field has an incorrect size.
	ErrInvalidSize = errors.New("invalid size")

	// ErrInvalidPEM is returned when no usable PEM block is found.
	ErrInvalidPEM = errors.New("invalid PEM data")
)
