package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/securexchat/client-go/internal/apierrors"
)

// Health checks that the relay is reachable.
func (c *Client) Health(ctx context.Context) error {
	var result HealthResponse
	if err := c.Do(ctx, http.MethodGet, "/api/health", nil, &result); err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("relay reported unhealthy")
	}
	return nil
}

// GetServerInfo retrieves relay configuration.
func (c *Client) GetServerInfo(ctx context.Context) (*ServerInfo, error) {
	var result ServerInfo
	if err := c.Do(ctx, http.MethodGet, "/api/server-info", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetAccount retrieves the full directory record for an account.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	path := fmt.Sprintf("/api/accounts/%s", url.PathEscape(accountID))
	var result Account
	if err := c.Do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourceAccount)
	}
	return &result, nil
}

// GetPublicKey retrieves an account's published key and, when the relay
// attests lookups, its signature.
func (c *Client) GetPublicKey(ctx context.Context, accountID string) (*PublicKeyRecord, error) {
	path := fmt.Sprintf("/api/accounts/%s/public-key", url.PathEscape(accountID))
	var result PublicKeyRecord
	if err := c.Do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourcePublicKey)
	}
	return &result, nil
}

// PutPublicKey merges publicKey into the account's directory record.
func (c *Client) PutPublicKey(ctx context.Context, accountID, publicKey string) error {
	path := fmt.Sprintf("/api/accounts/%s/public-key", url.PathEscape(accountID))
	err := c.Do(ctx, http.MethodPut, path, PublishKeyRequest{PublicKey: publicKey}, nil)
	return apierrors.WithResourceType(err, apierrors.ResourceAccount)
}

// PutProfile merges profile fields into the account's directory record.
func (c *Client) PutProfile(ctx context.Context, accountID string, req ProfileRequest) (*Account, error) {
	path := fmt.Sprintf("/api/accounts/%s/profile", url.PathEscape(accountID))
	var result Account
	if err := c.Do(ctx, http.MethodPut, path, req, &result); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourceAccount)
	}
	return &result, nil
}

// AppendMessage stores a message in a conversation log. The returned record
// carries the relay-assigned CreatedAt.
func (c *Client) AppendMessage(ctx context.Context, conversationID string, msg *MessageRecord) (*MessageRecord, error) {
	path := fmt.Sprintf("/api/conversations/%s/messages", url.PathEscape(conversationID))
	var result MessageRecord
	if err := c.Do(ctx, http.MethodPost, path, msg, &result); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourceConversation)
	}
	return &result, nil
}

// ListMessages returns a conversation's messages ordered by CreatedAt.
func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]MessageRecord, error) {
	path := fmt.Sprintf("/api/conversations/%s/messages", url.PathEscape(conversationID))
	var result MessageList
	if err := c.Do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, apierrors.WithResourceType(err, apierrors.ResourceConversation)
	}
	return result.Messages, nil
}
