package securexchat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/securexchat/client-go/internal/api"
	"github.com/securexchat/client-go/internal/crypto"
	"github.com/securexchat/client-go/localstore"
)

// ServerInfo contains relay configuration.
type ServerInfo struct {
	// DirectorySigningKey is the key to pin with WithDirectoryKey. Empty when
	// the relay does not attest directory lookups.
	DirectorySigningKey string
	Retention           time.Duration
}

// Client is the chat client for one account. It is safe for concurrent use.
type Client struct {
	accountID string
	apiClient *api.Client
	keys      *KeyStore
	builder   *EnvelopeBuilder
	reader    *EnvelopeReader
	log       MessageLog
	dir       Directory

	signing bool
	logger  Logger

	// retentionMu guards retention until it is resolved. Relay clients
	// without WithRetention resolve it from ServerInfo on first use.
	retentionMu       sync.Mutex
	retention         time.Duration
	retentionResolved bool

	// keyMu serializes operations that replace the account's key pair.
	keyMu sync.Mutex
	now   func() time.Time
}

// buildAPIClient creates and configures an API client from the given config.
func buildAPIClient(cfg *clientConfig) (*api.Client, error) {
	apiOpts := []api.Option{
		api.WithBaseURL(cfg.baseURL),
	}
	if cfg.timeout > 0 {
		apiOpts = append(apiOpts, api.WithTimeout(cfg.timeout))
	}
	if cfg.retriesSet {
		apiOpts = append(apiOpts, api.WithRetries(cfg.retries))
	}
	if len(cfg.retryOn) > 0 {
		apiOpts = append(apiOpts, api.WithRetryOn(cfg.retryOn))
	}
	if cfg.httpClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(cfg.httpClient))
	}
	return api.New(cfg.apiKey, apiOpts...)
}

// New creates a client acting as accountID. Either WithBaseURL, or both
// WithDirectory and WithMessageLog, must be given.
func New(accountID string, opts ...Option) (*Client, error) {
	if accountID == "" {
		return nil, ErrMissingAccountID
	}

	cfg := &clientConfig{
		retention: DefaultRetention,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &Client{
		accountID:         accountID,
		signing:           cfg.signing,
		retention:         cfg.retention,
		retentionResolved: cfg.retentionSet || cfg.baseURL == "",
		logger:            cfg.logger,
		now:               time.Now,
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}

	if cfg.baseURL != "" {
		if cfg.directoryKey != "" && !crypto.ValidateSignerPublicKey(cfg.directoryKey) {
			return nil, fmt.Errorf("%w: directory key is not an ML-DSA-65 public key", ErrInvalidPublicKey)
		}
		apiClient, err := buildAPIClient(cfg)
		if err != nil {
			return nil, err
		}
		c.apiClient = apiClient
		if cfg.directory == nil {
			cfg.directory = &RemoteDirectory{api: apiClient, signerKey: cfg.directoryKey}
		}
		if cfg.messageLog == nil {
			cfg.messageLog = &RemoteMessageLog{api: apiClient, logger: c.logger}
		}
	}
	if cfg.directory == nil || cfg.messageLog == nil {
		return nil, ErrNoDirectory
	}
	if cfg.local == nil {
		cfg.local = localstore.NewMemory()
	}

	c.dir = cfg.directory
	c.log = cfg.messageLog
	c.keys = NewKeyStore(cfg.local, cfg.directory)
	c.builder = NewEnvelopeBuilder(c.keys)
	c.reader = NewEnvelopeReader(
		ReaderPlaceholder(cfg.placeholder),
		ReaderVerification(cfg.verify, c.keys),
		ReaderLogger(c.logger),
	)
	return c, nil
}

// AccountID returns the account this client acts as.
func (c *Client) AccountID() string {
	return c.accountID
}

// KeyStore returns the client's key store.
func (c *Client) KeyStore() *KeyStore {
	return c.keys
}

// Reader returns the client's envelope reader.
func (c *Client) Reader() *EnvelopeReader {
	return c.reader
}

// ServerInfo fetches the relay configuration. It fails for clients built
// without a relay URL.
func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	if c.apiClient == nil {
		return nil, fmt.Errorf("no relay configured")
	}
	info, err := c.apiClient.GetServerInfo(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return &ServerInfo{
		DirectorySigningKey: info.DirectorySigningKey,
		Retention:           time.Duration(info.RetentionSeconds) * time.Second,
	}, nil
}

// Health checks that the relay is reachable and reports itself healthy.
func (c *Client) Health(ctx context.Context) error {
	if c.apiClient == nil {
		return fmt.Errorf("no relay configured")
	}
	return wrapError(c.apiClient.Health(ctx))
}

// AccountInfo is an account's public directory record.
type AccountInfo struct {
	AccountID   string
	PublicKey   string
	DisplayName string
	PhotoURL    string
	UpdatedAt   time.Time
}

// Account fetches accountID's directory record from the relay. An unknown
// account yields ErrAccountNotFound.
func (c *Client) Account(ctx context.Context, accountID string) (*AccountInfo, error) {
	if c.apiClient == nil {
		return nil, fmt.Errorf("no relay configured")
	}
	acc, err := c.apiClient.GetAccount(ctx, accountID)
	if err != nil {
		return nil, wrapError(err)
	}
	return &AccountInfo{
		AccountID:   acc.AccountID,
		PublicKey:   acc.PublicKey,
		DisplayName: acc.DisplayName,
		PhotoURL:    acc.PhotoURL,
		UpdatedAt:   acc.UpdatedAt,
	}, nil
}

// retentionWindow returns how long disappearing messages stay visible. A
// failed ServerInfo call falls back to the configured default and is
// retried on the next call.
func (c *Client) retentionWindow(ctx context.Context) time.Duration {
	c.retentionMu.Lock()
	defer c.retentionMu.Unlock()
	if c.retentionResolved {
		return c.retention
	}

	info, err := c.ServerInfo(ctx)
	if err != nil {
		c.logger.Warnf("server info: %v (hiding disappearing messages after %s)", err, c.retention)
		return c.retention
	}
	c.retention = info.Retention
	c.retentionResolved = true
	c.logger.Debugf("relay retention is %s", c.retention)
	return c.retention
}

// SetProfile updates the account's display name and photo in the directory.
// The directory must support profiles.
func (c *Client) SetProfile(ctx context.Context, displayName, photoURL string) error {
	p, ok := c.dir.(interface {
		SetProfile(ctx context.Context, accountID, displayName, photoURL string) error
	})
	if !ok {
		return fmt.Errorf("directory %T does not store profiles", c.dir)
	}
	return wrapError(p.SetProfile(ctx, c.accountID, displayName, photoURL))
}

// OutgoingMessage is a message to send. At least one of Text and
// Attachment must be set.
type OutgoingMessage struct {
	Text       string
	Attachment *Attachment
	// Disappearing marks the message for removal after the retention window.
	Disappearing bool
}

// Send encrypts and appends a message to the conversation with
// recipientID. Text is trimmed first; an empty message returns
// ErrEmptyMessage. If either party has no published key the send is refused
// with a *RecipientKeyUnavailableError and nothing is stored.
func (c *Client) Send(ctx context.Context, recipientID string, msg OutgoingMessage) (*MessageEnvelope, error) {
	text := strings.TrimSpace(msg.Text)
	if text == "" && msg.Attachment == nil {
		return nil, ErrEmptyMessage
	}
	if msg.Attachment != nil {
		if err := msg.Attachment.validate(); err != nil {
			return nil, err
		}
	}

	var body Body
	if text != "" {
		te, err := c.buildText(ctx, text, recipientID)
		if err != nil {
			return nil, err
		}
		if msg.Attachment != nil {
			body = MixedEnvelope{Text: *te, Attachment: *msg.Attachment}
		} else {
			body = *te
		}
	} else {
		body = ImageEnvelope{Attachment: *msg.Attachment}
	}

	env := &MessageEnvelope{
		ID:           uuid.NewString(),
		SenderID:     c.accountID,
		ExpiresAfter: msg.Disappearing,
		Body:         body,
	}
	stored, err := c.log.Append(ctx, ConversationID(c.accountID, recipientID), env)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return stored, nil
}

func (c *Client) buildText(ctx context.Context, text, recipientID string) (*TextEnvelope, error) {
	if !c.signing {
		return c.builder.Build(ctx, text, c.accountID, recipientID)
	}
	priv, err := c.keys.GetLocalPrivateKey(ctx, c.accountID)
	if err != nil {
		return nil, err
	}
	return c.builder.BuildSigned(ctx, text, c.accountID, recipientID, priv)
}

// Message is a resolved message as seen by the local account.
type Message struct {
	ID       string
	SenderID string
	// Text is the plaintext, or the placeholder when it cannot be read.
	Text         string
	Readable     bool
	Status       ReadStatus
	Attachment   *Attachment
	CreatedAt    time.Time
	Disappearing bool
	// Outgoing is true for messages sent by the local account.
	Outgoing bool
}

// Conversation lists and decrypts the conversation with peerID in creation
// order. Disappearing messages past the retention window are omitted.
func (c *Client) Conversation(ctx context.Context, peerID string) ([]Message, error) {
	priv, err := c.keys.GetLocalPrivateKey(ctx, c.accountID)
	if err != nil {
		return nil, err
	}

	envs, err := c.log.List(ctx, ConversationID(c.accountID, peerID))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	retention := c.retentionWindow(ctx)
	cutoff := c.now().Add(-retention)
	out := make([]Message, 0, len(envs))
	for _, env := range envs {
		if env.ExpiresAfter && retention > 0 && env.CreatedAt.Before(cutoff) {
			continue
		}
		res := c.reader.ResolveDetail(ctx, env, c.accountID, priv)
		m := Message{
			ID:           env.ID,
			SenderID:     env.SenderID,
			Text:         res.Text,
			Readable:     res.Readable,
			Status:       res.Status,
			CreatedAt:    env.CreatedAt,
			Disappearing: env.ExpiresAfter,
			Outgoing:     env.SenderID == c.accountID,
		}
		if a, ok := env.Attachment(); ok {
			m.Attachment = &a
		}
		out = append(out, m)
	}
	return out, nil
}
