package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestBase64RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"simple", []byte("hello")},
		{"binary mixed", []byte{0x00, 0xff, 0x7f, 0x80}},
		{"url unsafe chars", []byte{0xfb, 0xf0}},
		{"large data", make([]byte, 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			std, err := FromBase64(ToBase64(tt.data))
			if err != nil {
				t.Fatalf("FromBase64() error = %v", err)
			}
			if !bytes.Equal(std, tt.data) {
				t.Errorf("standard round trip = %v, want %v", std, tt.data)
			}

			url, err := FromBase64URL(ToBase64URL(tt.data))
			if err != nil {
				t.Fatalf("FromBase64URL() error = %v", err)
			}
			if !bytes.Equal(url, tt.data) {
				t.Errorf("url round trip = %v, want %v", url, tt.data)
			}
		})
	}
}

func TestToBase64URL_NoPaddingURLSafe(t *testing.T) {
	encoded := ToBase64URL([]byte{0xfb, 0xff, 0x3f, 0xff, 0x01})
	if strings.ContainsAny(encoded, "+/=") {
		t.Errorf("encoded string is not URL-safe: %s", encoded)
	}
}

func TestDecodeBase64_MultipleFormats(t *testing.T) {
	original := []byte("hello world")

	tests := []struct {
		name    string
		encoded string
	}{
		{"standard encoding", "aGVsbG8gd29ybGQ="},
		{"raw standard encoding", "aGVsbG8gd29ybGQ"},
		{"line wrapped", "aGVsbG8g\nd29ybGQ=\n"},
		{"spaces", " aGVsbG8gd29ybGQ= "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeBase64(tt.encoded)
			if err != nil {
				t.Fatalf("DecodeBase64() error = %v", err)
			}
			if !bytes.Equal(decoded, original) {
				t.Errorf("DecodeBase64() = %q, want %q", decoded, original)
			}
		})
	}
}

func TestDecodeBase64_URLAlphabet(t *testing.T) {
	data := []byte{0xfb, 0xff, 0x3f}
	decoded, err := DecodeBase64(ToBase64URL(data))
	if err != nil {
		t.Fatalf("DecodeBase64() error = %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("DecodeBase64() = %v, want %v", decoded, data)
	}
}

func TestDecodeBase64_Invalid(t *testing.T) {
	for _, input := range []string{"!!!invalid!!!", "a"} {
		if _, err := DecodeBase64(input); err == nil {
			t.Errorf("DecodeBase64(%q) expected error", input)
		}
	}
}
