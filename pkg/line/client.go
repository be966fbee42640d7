package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kireiworks/cleaning-backend/pkg/logger"
)

// maxMulticastRecipients is the Messaging API limit per multicast call
const maxMulticastRecipients = 500

// Client represents a LINE Messaging API client
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new LINE client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// DryRun reports whether messages are only logged
func (c *Client) DryRun() bool {
	return c.config.DryRun
}

// Push sends messages to one LINE user
func (c *Client) Push(ctx context.Context, to string, messages ...Message) error {
	if to == "" || len(messages) == 0 {
		return ErrInvalidRequest
	}
	return c.doRequest(ctx, "/v2/bot/message/push", PushRequest{To: to, Messages: messages})
}

// Multicast sends the same messages to many users, chunked to the API limit
func (c *Client) Multicast(ctx context.Context, to []string, messages ...Message) error {
	if len(messages) == 0 {
		return ErrInvalidRequest
	}
	for start := 0; start < len(to); start += maxMulticastRecipients {
		end := start + maxMulticastRecipients
		if end > len(to) {
			end = len(to)
		}
		if err := c.doRequest(ctx, "/v2/bot/message/multicast", MulticastRequest{To: to[start:end], Messages: messages}); err != nil {
			return err
		}
	}
	return nil
}

// doRequest performs an HTTP request to the Messaging API
func (c *Client) doRequest(ctx context.Context, endpoint string, payload interface{}) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	if c.config.DryRun {
		logger.Info("LINE dry run, message not sent", map[string]interface{}{
			"endpoint": endpoint,
			"body":     string(reqBody),
		})
		return nil
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.ChannelAccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := string(body)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		msg = errResp.Message
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrSendFailed, resp.StatusCode, msg)
	}
}
