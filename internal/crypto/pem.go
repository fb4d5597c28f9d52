package crypto

import (
	"encoding/pem"
	"strings"
)

const (
	pemPrivateKey    = "PRIVATE KEY"
	pemRSAPrivateKey = "RSA PRIVATE KEY"
	pemPublicKey     = "PUBLIC KEY"
)

// EncodePrivateKeyPEM wraps a base64 PKCS#8 private key in a PEM block.
func EncodePrivateKeyPEM(privateKeyB64 string) ([]byte, error) {
	priv, err := ParsePrivateKey(privateKeyB64)
	if err != nil {
		return nil, err
	}
	canonical, err := EncodePrivateKey(priv)
	if err != nil {
		return nil, err
	}
	der, err := FromBase64(canonical)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPrivateKey, Bytes: der}), nil
}

// EncodePublicKeyPEM wraps a base64 PKIX public key in a PEM block.
func EncodePublicKeyPEM(publicKeyB64 string) ([]byte, error) {
	if _, err := ParsePublicKey(publicKeyB64); err != nil {
		return nil, err
	}
	der, err := DecodeBase64(publicKeyB64)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPublicKey, Bytes: der}), nil
}

// NormalizePrivateKey accepts a private key as PEM (PKCS#8 or PKCS#1) or as
// base64 DER and returns the canonical base64 PKCS#8 encoding.
func NormalizePrivateKey(input string) (string, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "-----BEGIN") {
		block, _ := pem.Decode([]byte(input))
		if block == nil {
			return "", ErrInvalidPEM
		}
		if block.Type != pemPrivateKey && block.Type != pemRSAPrivateKey {
			return "", ErrInvalidPEM
		}
		priv, err := parsePrivateKeyDER(block.Bytes)
		if err != nil {
			return "", err
		}
		return EncodePrivateKey(priv)
	}
	priv, err := ParsePrivateKey(input)
	if err != nil {
		return "", err
	}
	return EncodePrivateKey(priv)
}
