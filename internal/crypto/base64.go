package crypto

import (
	"encoding/base64"
	"strings"
)

// ToBase64 encodes bytes to standard base64 with padding.
// Keys and ciphertexts travel in this encoding.
func ToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// FromBase64 decodes standard base64 (with padding) to bytes.
func FromBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// ToBase64URL encodes bytes to URL-safe base64 without padding.
// Directory attestations and sealed key files use this encoding.
func ToBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// FromBase64URL decodes URL-safe base64 without padding.
func FromBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

// DecodeBase64 decodes base64 in any of the four RFC 4648 variants. Line
// breaks and spaces are ignored so keys pasted from a terminal or a text
// area still decode.
func DecodeBase64(s string) ([]byte, error) {
	s = stripWhitespace(s)

	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}

	data, err = base64.RawStdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}

	data, err = base64.URLEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}

	return base64.RawURLEncoding.DecodeString(s)
}

func stripWhitespace(s string) string {
	if !strings.ContainsAny(s, " \t\r\n") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
}
