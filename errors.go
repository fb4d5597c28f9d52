package securexchat

import (
	"errors"
	"fmt"

	"github.com/securexchat/client-go/internal/apierrors"
	"github.com/securexchat/client-go/internal/crypto"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrKeyGeneration is returned when a key pair cannot be generated.
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrPrivateKeyNotFound is returned when the local store has no private key
	// for the account.
	ErrPrivateKeyNotFound = errors.New("private key not found")

	// ErrRecipientKeyUnavailable is returned when either party of a message
	// has no published public key.
	ErrRecipientKeyUnavailable = errors.New("recipient key unavailable")

	// ErrDecryptionFailed is returned when a ciphertext cannot be decrypted.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrPlaintextTooLarge is returned when a message exceeds MaxPlaintextSize.
	ErrPlaintextTooLarge = crypto.ErrPlaintextTooLarge

	// ErrInvalidPublicKey is returned when a public key cannot be parsed.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrSignatureInvalid is returned when a message signature or a directory
	// attestation does not verify.
	ErrSignatureInvalid = errors.New("signature verification failed")

	// ErrEmptyMessage is returned when a message has neither text nor attachment.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrKeyMismatch is returned when a private key does not belong to the
	// account's published public key.
	ErrKeyMismatch = errors.New("private key does not match published public key")

	// ErrNoPublishedKey is returned when an operation needs the account's own
	// directory key and none has been published.
	ErrNoPublishedKey = errors.New("no public key published for account")

	// ErrRotationNotConfirmed is returned when RotateKeys is called without
	// RotateOptions.Confirm.
	ErrRotationNotConfirmed = errors.New("key rotation not confirmed")

	// ErrInvalidImportData is returned when imported key data is invalid.
	ErrInvalidImportData = errors.New("invalid import data")

	// ErrMessageExists is returned when a message id is already stored.
	ErrMessageExists = errors.New("message already exists")

	// ErrMissingAccountID is returned when a client is created without an account id.
	ErrMissingAccountID = errors.New("account id is required")

	// ErrNoDirectory is returned when a client has neither a relay URL nor a
	// directory and message log.
	ErrNoDirectory = errors.New("no directory or message log configured")

	// ErrUnauthorized is returned when the relay rejects the API key.
	ErrUnauthorized = errors.New("invalid or expired API key")

	// ErrAccountNotFound is returned when the directory has no record for an account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrRateLimited is returned when the relay rate limit is exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// SecureXChatError is implemented by all SDK errors.
type SecureXChatError interface {
	error
	SecureXChatError() // marker method
}

// KeyGenerationError wraps a failure of the key generation primitive.
type KeyGenerationError struct {
	Err error
}

func (e *KeyGenerationError) Error() string {
	return fmt.Sprintf("key generation failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *KeyGenerationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *KeyGenerationError) Is(target error) bool {
	return target == ErrKeyGeneration
}

// SecureXChatError implements the SecureXChatError interface.
func (e *KeyGenerationError) SecureXChatError() {}

// PrivateKeyNotFoundError reports a missing local private key.
type PrivateKeyNotFoundError struct {
	AccountID string
}

func (e *PrivateKeyNotFoundError) Error() string {
	return fmt.Sprintf("private key not found for account %q", e.AccountID)
}

// Is implements errors.Is for sentinel error matching.
func (e *PrivateKeyNotFoundError) Is(target error) bool {
	return target == ErrPrivateKeyNotFound
}

// SecureXChatError implements the SecureXChatError interface.
func (e *PrivateKeyNotFoundError) SecureXChatError() {}

// RecipientKeyUnavailableError names the party whose public key is missing.
// Despite the name it is also returned for the sender.
type RecipientKeyUnavailableError struct {
	AccountID string
}

func (e *RecipientKeyUnavailableError) Error() string {
	return fmt.Sprintf("no public key published for account %q", e.AccountID)
}

// Is implements errors.Is for sentinel error matching.
func (e *RecipientKeyUnavailableError) Is(target error) bool {
	return target == ErrRecipientKeyUnavailable
}

// SecureXChatError implements the SecureXChatError interface.
func (e *RecipientKeyUnavailableError) SecureXChatError() {}

// Decryption stages reported by DecryptionError.
const (
	StageDecode = "decode"
	StageKey    = "key"
	StageOAEP   = "oaep"
	StageUTF8   = "utf8"
)

// DecryptionError represents a failure to decrypt a ciphertext.
type DecryptionError struct {
	Stage string
	Err   error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decryption failed at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("decryption failed at %s", e.Stage)
}

// Unwrap returns the underlying error.
func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *DecryptionError) Is(target error) bool {
	return target == ErrDecryptionFailed
}

// SecureXChatError implements the SecureXChatError interface.
func (e *DecryptionError) SecureXChatError() {}

// SignatureVerificationError indicates a forged or tampered message or
// directory record.
type SignatureVerificationError struct {
	AccountID string
	Message   string
}

func (e *SignatureVerificationError) Error() string {
	return fmt.Sprintf("signature verification failed for %q: %s", e.AccountID, e.Message)
}

// Is implements errors.Is for sentinel error matching.
func (e *SignatureVerificationError) Is(target error) bool {
	return target == ErrSignatureInvalid
}

// SecureXChatError implements the SecureXChatError interface.
func (e *SignatureVerificationError) SecureXChatError() {}

// APIError represents an HTTP error from the relay.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string

	resource apierrors.ResourceType
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

// SecureXChatError implements the SecureXChatError interface.
func (e *APIError) SecureXChatError() {}

// Is implements errors.Is for sentinel error matching.
func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case 401, 403:
		return target == ErrUnauthorized
	case 404:
		return target == ErrAccountNotFound &&
			(e.resource == apierrors.ResourceAccount || e.resource == apierrors.ResourceUnknown)
	case 409:
		return target == ErrMessageExists && e.resource == apierrors.ResourceConversation
	case 429:
		return target == ErrRateLimited
	}
	return false
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

// SecureXChatError implements the SecureXChatError interface.
func (e *NetworkError) SecureXChatError() {}

// wrapError converts internal API errors to public errors.
// This ensures that errors.Is() checks work with public sentinel errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Message,
			RequestID:  apiErr.RequestID,
			resource:   apiErr.ResourceType,
		}
	}

	var netErr *apierrors.NetworkError
	if errors.As(err, &netErr) {
		return &NetworkError{
			Err:     netErr.Err,
			URL:     netErr.URL,
			Attempt: netErr.Attempt,
		}
	}

	return err
}
