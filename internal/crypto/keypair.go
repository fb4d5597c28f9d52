package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"io"
)

// randReader is the random source used for key generation, OAEP and signing.
// It defaults to nil (which uses crypto/rand) but can be overridden for testing.
var randReader io.Reader

func random() io.Reader {
	if randReader != nil {
		return randReader
	}
	return rand.Reader
}

// KeyPair is an RSA-2048 account key pair together with its transport
// encodings.
type KeyPair struct {
	// Private is the parsed private key. Its public half is Private.PublicKey.
	Private *rsa.PrivateKey
	// PublicKeyB64 is the PKIX (SPKI) DER encoding in standard base64.
	PublicKeyB64 string
	// PrivateKeyB64 is the PKCS#8 DER encoding in standard base64.
	PrivateKeyB64 string
}

// GenerateKeyPair creates a new RSA-2048 key pair with e=65537.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(random(), RSAKeyBits)
	if err != nil {
		return nil, err
	}
	return newKeyPair(priv)
}

// KeyPairFromPrivateKey rebuilds a key pair from an encoded private key.
func KeyPairFromPrivateKey(privateKeyB64 string) (*KeyPair, error) {
	priv, err := ParsePrivateKey(privateKeyB64)
	if err != nil {
		return nil, err
	}
	return newKeyPair(priv)
}

func newKeyPair(priv *rsa.PrivateKey) (*KeyPair, error) {
	pubB64, err := EncodePublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	privB64, err := EncodePrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		Private:       priv,
		PublicKeyB64:  pubB64,
		PrivateKeyB64: privB64,
	}, nil
}

// EncodePublicKey encodes an RSA public key as base64 PKIX DER.
func EncodePublicKey(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return ToBase64(der), nil
}

// EncodePrivateKey encodes an RSA private key as base64 PKCS#8 DER.
func EncodePrivateKey(priv *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", fmt.Errorf("marshal private key: %w", err)
	}
	return ToBase64(der), nil
}

// ParsePublicKey decodes a base64 PKIX DER public key. Only RSA keys of
// RSAKeyBits are accepted.
func ParsePublicKey(publicKeyB64 string) (*rsa.PublicKey, error) {
	der, err := DecodeBase64(publicKeyB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidPublicKey)
	}
	if pub.N.BitLen() != RSAKeyBits {
		return nil, fmt.Errorf("%w: got %d bits, want %d", ErrKeySize, pub.N.BitLen(), RSAKeyBits)
	}
	return pub, nil
}

// ParsePrivateKey decodes a base64 PKCS#8 DER private key. PKCS#1 DER is
// accepted as well so keys exported by older tooling still load.
func ParsePrivateKey(privateKeyB64 string) (*rsa.PrivateKey, error) {
	der, err := DecodeBase64(privateKeyB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return parsePrivateKeyDER(der)
}

func parsePrivateKeyDER(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		priv, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidPrivateKey)
		}
		return checkPrivateKey(priv)
	}
	priv, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return checkPrivateKey(priv)
}

func checkPrivateKey(priv *rsa.PrivateKey) (*rsa.PrivateKey, error) {
	if priv.N.BitLen() != RSAKeyBits {
		return nil, fmt.Errorf("%w: got %d bits, want %d", ErrKeySize, priv.N.BitLen(), RSAKeyBits)
	}
	return priv, nil
}

// PublicKeysEqual reports whether two encoded public keys describe the same
// RSA key, regardless of base64 formatting.
func PublicKeysEqual(a, b string) bool {
	pa, err := ParsePublicKey(a)
	if err != nil {
		return false
	}
	pb, err := ParsePublicKey(b)
	if err != nil {
		return false
	}
	return pa.Equal(pb)
}

// MatchesPublicKey reports whether privateKeyB64 is the private half of
// publicKeyB64.
func MatchesPublicKey(privateKeyB64, publicKeyB64 string) bool {
	priv, err := ParsePrivateKey(privateKeyB64)
	if err != nil {
		return false
	}
	pub, err := ParsePublicKey(publicKeyB64)
	if err != nil {
		return false
	}
	return priv.PublicKey.Equal(pub)
}

// ValidateKeyPair validates that a key pair is structurally sound and that
// its encodings agree with the parsed key.
func ValidateKeyPair(kp *KeyPair) bool {
	if kp == nil || kp.Private == nil || kp.PublicKeyB64 == "" || kp.PrivateKeyB64 == "" {
		return false
	}
	if err := kp.Private.Validate(); err != nil {
		return false
	}
	if !MatchesPublicKey(kp.PrivateKeyB64, kp.PublicKeyB64) {
		return false
	}
	pub, err := ParsePublicKey(kp.PublicKeyB64)
	if err != nil {
		return false
	}
	return kp.Private.PublicKey.Equal(pub)
}
