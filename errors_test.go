package securexchat

import (
	"errors"
	"fmt"
	"testing"

	"github.com/securexchat/client-go/internal/apierrors"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []struct {
		name string
		err  error
	}{
		{"ErrKeyGeneration", ErrKeyGeneration},
		{"ErrPrivateKeyNotFound", ErrPrivateKeyNotFound},
		{"ErrRecipientKeyUnavailable", ErrRecipientKeyUnavailable},
		{"ErrDecryptionFailed", ErrDecryptionFailed},
		{"ErrPlaintextTooLarge", ErrPlaintextTooLarge},
		{"ErrSignatureInvalid", ErrSignatureInvalid},
		{"ErrEmptyMessage", ErrEmptyMessage},
		{"ErrKeyMismatch", ErrKeyMismatch},
		{"ErrNoPublishedKey", ErrNoPublishedKey},
		{"ErrRotationNotConfirmed", ErrRotationNotConfirmed},
		{"ErrInvalidImportData", ErrInvalidImportData},
		{"ErrMessageExists", ErrMessageExists},
		{"ErrUnauthorized", ErrUnauthorized},
		{"ErrAccountNotFound", ErrAccountNotFound},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, s := range sentinels {
		t.Run(s.name, func(t *testing.T) {
			if s.err == nil {
				t.Fatal("sentinel error is nil")
			}
			if s.err.Error() == "" {
				t.Error("sentinel error has empty message")
			}
		})
	}
}

func TestTypedErrors_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"key generation", &KeyGenerationError{Err: errors.New("entropy")}, ErrKeyGeneration},
		{"private key not found", &PrivateKeyNotFoundError{AccountID: "alice"}, ErrPrivateKeyNotFound},
		{"recipient key", &RecipientKeyUnavailableError{AccountID: "bob"}, ErrRecipientKeyUnavailable},
		{"decryption", &DecryptionError{Stage: StageOAEP}, ErrDecryptionFailed},
		{"signature", &SignatureVerificationError{AccountID: "bob", Message: "bad"}, ErrSignatureInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.target)
			}
			wrapped := fmt.Errorf("context: %w", tt.err)
			if !errors.Is(wrapped, tt.target) {
				t.Error("errors.Is() lost through wrapping")
			}
			var marker SecureXChatError
			if !errors.As(tt.err, &marker) {
				t.Error("error does not implement SecureXChatError")
			}
		})
	}
}

func TestKeyGenerationError_Unwrap(t *testing.T) {
	inner := errors.New("entropy exhausted")
	err := &KeyGenerationError{Err: inner}
	if !errors.Is(err, inner) {
		t.Error("errors.Is(err, inner) = false")
	}
}

func TestDecryptionError_Error(t *testing.T) {
	err := &DecryptionError{Stage: StageDecode, Err: errors.New("illegal base64")}
	if got := err.Error(); got != "decryption failed at decode: illegal base64" {
		t.Errorf("Error() = %q", got)
	}
	bare := &DecryptionError{Stage: StageUTF8}
	if got := bare.Error(); got != "decryption failed at utf8" {
		t.Errorf("Error() = %q", got)
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "with message",
			err:      &APIError{StatusCode: 401, Message: "invalid API key"},
			expected: "API error 401: invalid API key",
		},
		{
			name:     "without message",
			err:      &APIError{StatusCode: 500},
			expected: "API error 500",
		},
		{
			name:     "with request ID",
			err:      &APIError{StatusCode: 404, Message: "not found", RequestID: "req-123"},
			expected: "API error 404: not found (request_id: req-123)",
		},
		{
			name:     "with request ID only",
			err:      &APIError{StatusCode: 500, RequestID: "req-456"},
			expected: "API error 500 (request_id: req-456)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		target   error
		expected bool
	}{
		{"401 unauthorized", &APIError{StatusCode: 401}, ErrUnauthorized, true},
		{"403 unauthorized", &APIError{StatusCode: 403}, ErrUnauthorized, true},
		{"404 account", &APIError{StatusCode: 404, resource: apierrors.ResourceAccount}, ErrAccountNotFound, true},
		{"404 unknown resource", &APIError{StatusCode: 404}, ErrAccountNotFound, true},
		{"404 conversation", &APIError{StatusCode: 404, resource: apierrors.ResourceConversation}, ErrAccountNotFound, false},
		{"409 conversation", &APIError{StatusCode: 409, resource: apierrors.ResourceConversation}, ErrMessageExists, true},
		{"409 account", &APIError{StatusCode: 409, resource: apierrors.ResourceAccount}, ErrMessageExists, false},
		{"429 rate limited", &APIError{StatusCode: 429}, ErrRateLimited, true},
		{"500 nothing", &APIError{StatusCode: 500}, ErrUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.expected {
				t.Errorf("errors.Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if wrapError(nil) != nil {
			t.Error("wrapError(nil) != nil")
		}
	})

	t.Run("api error", func(t *testing.T) {
		in := &apierrors.APIError{StatusCode: 404, Message: "gone", RequestID: "r1", ResourceType: apierrors.ResourceAccount}
		err := wrapError(fmt.Errorf("lookup: %w", in))

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("wrapError() = %T, want *APIError", err)
		}
		if apiErr.StatusCode != 404 || apiErr.Message != "gone" || apiErr.RequestID != "r1" {
			t.Errorf("wrapError() = %+v", apiErr)
		}
		if !errors.Is(err, ErrAccountNotFound) {
			t.Error("errors.Is(err, ErrAccountNotFound) = false")
		}
	})

	t.Run("network error", func(t *testing.T) {
		inner := errors.New("connection refused")
		err := wrapError(&apierrors.NetworkError{Err: inner, URL: "http://x", Attempt: 3})

		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			t.Fatalf("wrapError() = %T, want *NetworkError", err)
		}
		if netErr.Attempt != 3 || netErr.URL != "http://x" {
			t.Errorf("wrapError() = %+v", netErr)
		}
		if !errors.Is(err, inner) {
			t.Error("NetworkError does not unwrap to its cause")
		}
	})

	t.Run("other", func(t *testing.T) {
		in := errors.New("plain")
		if got := wrapError(in); got != in {
			t.Errorf("wrapError() = %v, want input unchanged", got)
		}
	})
}
