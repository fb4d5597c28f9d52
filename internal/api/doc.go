// Package api is the HTTP client for the securexchat relay. It handles
// authentication, JSON request/response serialization, and retries with
// exponential backoff for transient failures.
//
// # Client Creation
//
//   - [NewClient]: struct-based configuration.
//   - [New]: functional options.
//
// A base URL is required. The API key is optional; when set it is sent as
// an Authorization bearer token.
//
// # Retry Behavior
//
// Requests are retried up to [DefaultMaxRetries] times on 408, 429, 500,
// 502, 503 and 504. The delay doubles with each attempt and a Retry-After
// header from the relay stretches it. Network failures are retried the same
// way and surface as [apierrors.NetworkError] once retries are exhausted.
//
// # Error Handling
//
// Non-2xx responses become [apierrors.APIError]. Endpoint methods tag the
// error with the resource involved so that errors.Is can tell a missing
// account from a missing public key or conversation:
//
//	if errors.Is(err, apierrors.ErrPublicKeyNotFound) {
//	    // account exists but never published a key
//	}
//
// The wire types in this package are shared with the relay server.
//
// The [Client] type is safe for concurrent use.
package api
