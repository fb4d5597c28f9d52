// Package apierrors provides shared error types for the relay API.
package apierrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrUnauthorized is returned when the API key is invalid or expired.
	ErrUnauthorized = errors.New("invalid or expired API key")

	// ErrAccountNotFound is returned when the directory has no record for an account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrPublicKeyNotFound is returned when an account record carries no public key.
	ErrPublicKeyNotFound = errors.New("public key not found")

	// ErrConversationNotFound is returned when a conversation does not exist.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrConflict is returned when a stored record cannot be overwritten.
	ErrConflict = errors.New("record already exists")

	// ErrBadRequest is returned when the relay rejects a request body.
	ErrBadRequest = errors.New("bad request")

	// ErrRateLimited is returned when the API rate limit is exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// ResourceType indicates which type of resource an error relates to.
type ResourceType string

const (
	// ResourceUnknown indicates the resource type is not specified.
	ResourceUnknown ResourceType = ""
	// ResourceAccount indicates the error relates to a directory record.
	ResourceAccount ResourceType = "account"
	// ResourcePublicKey indicates the error relates to an account's public key.
	ResourcePublicKey ResourceType = "public_key"
	// ResourceConversation indicates the error relates to a message log.
	ResourceConversation ResourceType = "conversation"
)

// APIError represents an HTTP error from the relay.
type APIError struct {
	StatusCode   int
	Message      string
	RequestID    string
	ResourceType ResourceType
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		if e.Message != "" {
			return fmt.Sprintf("API error %d: %s (request_id: %s)", e.StatusCode, e.Message, e.RequestID)
		}
		return fmt.Sprintf("API error %d (request_id: %s)", e.StatusCode, e.RequestID)
	}
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case 400:
		return target == ErrBadRequest
	case 401, 403:
		return target == ErrUnauthorized
	case 404:
		switch e.ResourceType {
		case ResourceAccount:
			return target == ErrAccountNotFound
		case ResourcePublicKey:
			// a missing key implies nothing about the rest of the record
			return target == ErrPublicKeyNotFound
		case ResourceConversation:
			return target == ErrConversationNotFound
		default:
			return target == ErrAccountNotFound || target == ErrPublicKeyNotFound || target == ErrConversationNotFound
		}
	case 409:
		return target == ErrConflict
	case 429:
		return target == ErrRateLimited
	}
	return false
}

// IsNotFound reports whether err is a 404 from the relay, whatever the resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// WithResourceType returns a copy of the error with the resource type set.
// If the error is not an *APIError, it is returned unchanged.
func WithResourceType(err error, rt ResourceType) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode:   apiErr.StatusCode,
			Message:      apiErr.Message,
			RequestID:    apiErr.RequestID,
			ResourceType: rt,
		}
	}
	return err
}

// NetworkError represents a network-level failure.
type NetworkError struct {
	Err     error
	URL     string
	Attempt int
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}
