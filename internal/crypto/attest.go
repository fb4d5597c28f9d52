package crypto

import (
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

// DirectorySigner attests directory lookups with an ML-DSA-65 key held by
// the relay. Clients pin the signer's public key and reject lookups whose
// attestation does not verify.
type DirectorySigner struct {
	priv   *mldsa65.PrivateKey
	pubB64 string
}

// NewDirectorySigner derives a signer from a 32-byte seed so the relay key
// survives restarts.
func NewDirectorySigner(seed []byte) (*DirectorySigner, error) {
	if len(seed) != MLDSASeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes, want %d", ErrInvalidSize, len(seed), MLDSASeedSize)
	}
	var s [mldsa65.SeedSize]byte
	copy(s[:], seed)
	pub, priv := mldsa65.NewKeyFromSeed(&s)
	return newDirectorySigner(pub, priv)
}

// GenerateDirectorySigner creates a signer with a fresh random key.
func GenerateDirectorySigner() (*DirectorySigner, error) {
	pub, priv, err := mldsa65.GenerateKey(randReader)
	if err != nil {
		return nil, err
	}
	return newDirectorySigner(pub, priv)
}

func newDirectorySigner(pub *mldsa65.PublicKey, priv *mldsa65.PrivateKey) (*DirectorySigner, error) {
	// MarshalBinary never fails for keys produced by this package
	pubBytes, _ := pub.MarshalBinary()
	return &DirectorySigner{
		priv:   priv,
		pubB64: ToBase64URL(pubBytes),
	}, nil
}

// PublicKeyB64 returns the signer's public key as URL-safe base64.
func (s *DirectorySigner) PublicKeyB64() string {
	return s.pubB64
}

// Sign attests that accountID's directory entry holds publicKey.
func (s *DirectorySigner) Sign(accountID, publicKey string) (string, error) {
	sig := make([]byte, mldsa65.SignatureSize)
	if err := mldsa65.SignTo(s.priv, directoryTranscript(accountID, publicKey), nil, false, sig); err != nil {
		return "", fmt.Errorf("sign directory record: %w", err)
	}
	return ToBase64URL(sig), nil
}

// VerifyDirectoryRecord checks an attestation against a pinned signer key.
func VerifyDirectoryRecord(signerPublicKey, accountID, publicKey, signature string) error {
	pubBytes, err := FromBase64URL(signerPublicKey)
	if err != nil {
		return fmt.Errorf("decode signer key: %w", err)
	}
	sig, err := FromBase64URL(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	return Verify(pubBytes, directoryTranscript(accountID, publicKey), sig)
}

// ValidateSignerPublicKey reports whether signerPublicKey is a well-formed
// ML-DSA-65 public key in URL-safe base64.
func ValidateSignerPublicKey(signerPublicKey string) bool {
	publicKey, err := FromBase64URL(signerPublicKey)
	if err != nil {
		return false
	}
	return len(publicKey) == MLDSAPublicKeySize
}

// Verify verifies an ML-DSA-65 signature (low-level function).
func Verify(publicKey, message, signature []byte) error {
	pk := &mldsa65.PublicKey{}
	if err := pk.UnmarshalBinary(publicKey); err != nil {
		return fmt.Errorf("failed to parse public key: %w", err)
	}

	if !mldsa65.Verify(pk, message, nil, signature) {
		return ErrSignatureVerificationFailed
	}

	return nil
}

func directoryTranscript(accountID, publicKey string) []byte {
	return transcript(DirectoryAttestationContext, accountID, publicKey)
}
