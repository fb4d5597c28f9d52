package apierrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name:     "status code only",
			err:      &APIError{StatusCode: 500},
			expected: "API error 500",
		},
		{
			name:     "with message",
			err:      &APIError{StatusCode: 400, Message: "bad request"},
			expected: "API error 400: bad request",
		},
		{
			name:     "with request ID",
			err:      &APIError{StatusCode: 500, RequestID: "req-123"},
			expected: "API error 500 (request_id: req-123)",
		},
		{
			name:     "with message and request ID",
			err:      &APIError{StatusCode: 503, Message: "service unavailable", RequestID: "req-456"},
			expected: "API error 503: service unavailable (request_id: req-456)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
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
		{"400 matches ErrBadRequest", &APIError{StatusCode: 400}, ErrBadRequest, true},
		{"401 matches ErrUnauthorized", &APIError{StatusCode: 401}, ErrUnauthorized, true},
		{"403 matches ErrUnauthorized", &APIError{StatusCode: 403}, ErrUnauthorized, true},
		{"404 account", &APIError{StatusCode: 404, ResourceType: ResourceAccount}, ErrAccountNotFound, true},
		{"404 account is not conversation", &APIError{StatusCode: 404, ResourceType: ResourceAccount}, ErrConversationNotFound, false},
		{"404 public key", &APIError{StatusCode: 404, ResourceType: ResourcePublicKey}, ErrPublicKeyNotFound, true},
		{"404 public key is not account", &APIError{StatusCode: 404, ResourceType: ResourcePublicKey}, ErrAccountNotFound, false},
		{"404 conversation", &APIError{StatusCode: 404, ResourceType: ResourceConversation}, ErrConversationNotFound, true},
		{"404 unknown matches account", &APIError{StatusCode: 404}, ErrAccountNotFound, true},
		{"404 unknown matches conversation", &APIError{StatusCode: 404}, ErrConversationNotFound, true},
		{"409 matches ErrConflict", &APIError{StatusCode: 409}, ErrConflict, true},
		{"429 matches ErrRateLimited", &APIError{StatusCode: 429}, ErrRateLimited, true},
		{"500 matches nothing", &APIError{StatusCode: 500}, ErrUnauthorized, false},
		{"401 is not ErrRateLimited", &APIError{StatusCode: 401}, ErrRateLimited, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.expected {
				t.Errorf("errors.Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("lookup: %w", &APIError{StatusCode: 404})) {
		t.Error("IsNotFound() = false for wrapped 404")
	}
	if IsNotFound(&APIError{StatusCode: 500}) {
		t.Error("IsNotFound() = true for 500")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("IsNotFound() = true for plain error")
	}
}

func TestWithResourceType(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		if WithResourceType(nil, ResourceAccount) != nil {
			t.Error("expected nil")
		}
	})

	t.Run("api error gains resource type", func(t *testing.T) {
		orig := &APIError{StatusCode: 404, Message: "missing", RequestID: "r1"}
		err := WithResourceType(fmt.Errorf("wrapped: %w", orig), ResourceConversation)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.ResourceType != ResourceConversation {
			t.Errorf("ResourceType = %q", apiErr.ResourceType)
		}
		if apiErr.Message != "missing" || apiErr.RequestID != "r1" {
			t.Error("fields not preserved")
		}
		if orig.ResourceType != ResourceUnknown {
			t.Error("original error was mutated")
		}
	})

	t.Run("other errors unchanged", func(t *testing.T) {
		plain := errors.New("plain")
		if WithResourceType(plain, ResourceAccount) != plain {
			t.Error("non-API error should be returned unchanged")
		}
	})
}

func TestNetworkError(t *testing.T) {
	inner := errors.New("connection refused")
	err := &NetworkError{Err: inner, URL: "http://relay/api/health", Attempt: 2}

	if err.Error() != "network error: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should reach the wrapped error")
	}
}
