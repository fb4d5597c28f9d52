package securexchat

import (
	"net/http"
	"time"
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
	retries    int
	retriesSet bool
	retryOn    []int

	local      LocalStore
	directory  Directory
	messageLog MessageLog

	directoryKey string
	signing      bool
	verify       VerifyMode
	placeholder  string
	logger       Logger
	retention    time.Duration
	retentionSet bool
}

// Option configures the client.
type Option func(*clientConfig)

// WithBaseURL sets the relay base URL. The relay then backs the directory
// and message log unless WithDirectory or WithMessageLog override them.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithAPIKey sets the relay API key.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithRetries sets the number of retries for relay calls. Zero disables
// retrying.
// Default: 3
func WithRetries(count int) Option {
	return func(c *clientConfig) {
		c.retries = count
		c.retriesSet = true
	}
}

// WithRetryOn sets the HTTP status codes that trigger a retry.
// Default: [408, 429, 500, 502, 503, 504]
func WithRetryOn(statusCodes []int) Option {
	return func(c *clientConfig) {
		c.retryOn = statusCodes
	}
}

// WithLocalStore sets where the account's private key is kept.
// Default: an in-memory store that forgets keys when the process exits.
func WithLocalStore(store LocalStore) Option {
	return func(c *clientConfig) {
		c.local = store
	}
}

// WithDirectory sets the public key directory.
func WithDirectory(dir Directory) Option {
	return func(c *clientConfig) {
		c.directory = dir
	}
}

// WithMessageLog sets the conversation message log.
func WithMessageLog(log MessageLog) Option {
	return func(c *clientConfig) {
		c.messageLog = log
	}
}

// WithDirectoryKey pins the relay's directory attestation key (URL-safe
// base64 ML-DSA-65). Lookups without a valid attestation are rejected.
// Only applies to the relay-backed directory.
func WithDirectoryKey(key string) Option {
	return func(c *clientConfig) {
		c.directoryKey = key
	}
}

// WithSigning makes the client sign outgoing text with the account key.
// Default: false
func WithSigning(enabled bool) Option {
	return func(c *clientConfig) {
		c.signing = enabled
	}
}

// WithVerification sets how incoming signatures are checked.
// Default: VerifyNone
func WithVerification(mode VerifyMode) Option {
	return func(c *clientConfig) {
		c.verify = mode
	}
}

// WithPlaceholder sets the text shown for unreadable messages.
// Default: ""
func WithPlaceholder(text string) Option {
	return func(c *clientConfig) {
		c.placeholder = text
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithRetention sets how long disappearing messages are shown. Messages
// older than this are hidden even if the sweeper has not removed them yet.
// Default: the relay's retention from ServerInfo when WithBaseURL is set,
// else 5 minutes
func WithRetention(d time.Duration) Option {
	return func(c *clientConfig) {
		c.retention = d
		c.retentionSet = true
	}
}
