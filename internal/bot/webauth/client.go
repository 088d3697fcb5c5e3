// Package webauth is a client for the web application's account-linking
// endpoints. The web app issues one-time tokens; the bot only relays them.
package webauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
	"github.com/dmitrijs2005/diarybot/internal/common"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// HTTPError is a non-200 answer from the web app. It matches common.ErrBridge.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("web app responded %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("web app responded %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error { return common.ErrBridge }

type telegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type linkRequest struct {
	Token        string       `json:"token"`
	TelegramID   int64        `json:"telegramId"`
	TelegramUser telegramUser `json:"telegramUser"`
}

type linkResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type authRequestResponse struct {
	AuthURL   string `json:"authUrl"`
	ExpiresAt string `json:"expiresAt"`
}

// Client talks to {baseURL}/api/auth/*.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
	retryBase  time.Duration
}

// NewClient returns a Client. A nil httpClient gets a 10 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
		maxRetries: 2,
		retryBase:  300 * time.Millisecond,
	}
}

// Link attaches the chat user to the web session that issued token. A
// rejected token yields an error matching common.ErrInvalidToken.
func (c *Client) Link(ctx context.Context, token string, p models.Profile) error {
	req := linkRequest{
		Token:      token,
		TelegramID: p.ID,
		TelegramUser: telegramUser{
			ID:        p.ID,
			Username:  p.Username,
			FirstName: p.FirstName,
			LastName:  p.LastName,
		},
	}

	var out linkResponse
	if err := c.postJSON(ctx, "/api/auth/link", req, &out); err != nil {
		return err
	}
	if !out.Success {
		if out.Error != "" {
			return fmt.Errorf("%w: %s", common.ErrInvalidToken, out.Error)
		}
		return common.ErrInvalidToken
	}
	return nil
}

// RequestLink asks the web app for a fresh sign-in URL.
func (c *Client) RequestLink(ctx context.Context) (models.AuthLink, error) {
	var out authRequestResponse
	if err := c.postJSON(ctx, "/api/auth/request", nil, &out); err != nil {
		return models.AuthLink{}, err
	}
	if out.AuthURL == "" {
		return models.AuthLink{}, fmt.Errorf("%w: empty auth url", common.ErrBridge)
	}
	return models.AuthLink{URL: out.AuthURL, ExpiresAt: out.ExpiresAt}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	b := retry.WithMaxRetries(c.maxRetries, retry.NewConstant(c.retryBase))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Correlation-Id", uuid.NewString())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(fmt.Errorf("%w: %w", common.ErrBridge, err))
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}

		if resp.StatusCode != http.StatusOK {
			httpErr := &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
			if resp.StatusCode >= 500 {
				return retry.RetryableError(httpErr)
			}
			return httpErr
		}

		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: decode response: %w", common.ErrBridge, err)
		}
		return nil
	})
}

// errorMessage pulls {"error": "..."} out of a failure body when present.
func errorMessage(data []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Error
}
