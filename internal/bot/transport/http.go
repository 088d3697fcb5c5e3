package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// APIError is a Bot API response with ok=false or a non-2xx status.
type APIError struct {
	StatusCode  int
	Code        int
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("bot api error (status=%d code=%d): %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("bot api error (status=%d code=%d)", e.StatusCode, e.Code)
}

// Retryable reports whether the request may succeed if repeated.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

type apiUser struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type apiUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		From *apiUser `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// HTTPClient is the manual long-poll transport.
type HTTPClient struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	pollTimeout time.Duration
	maxRetries  uint64
	retryBase   time.Duration

	// retryAfterUnit scales the API's retry_after, which is in seconds.
	retryAfterUnit time.Duration
}

// NewHTTPClient builds the manual transport.
func NewHTTPClient(opts Options) *HTTPClient {
	opts = opts.normalized()
	return &HTTPClient{
		baseURL:     opts.BaseURL,
		token:       opts.Token,
		httpClient:  opts.HTTPClient,
		pollTimeout: opts.PollTimeout,
		maxRetries:  3,
		retryBase:   500 * time.Millisecond,

		retryAfterUnit: time.Second,
	}
}

func (c *HTTPClient) FetchUpdates(ctx context.Context, offset int64) ([]models.Update, error) {
	q := url.Values{}
	q.Set("timeout", strconv.Itoa(pollSeconds(c.pollTimeout)))
	if offset > 0 {
		q.Set("offset", strconv.FormatInt(offset, 10))
	}

	ctx, cancel := context.WithTimeout(ctx, c.pollTimeout+5*time.Second)
	defer cancel()

	var raw []apiUpdate
	if err := c.call(ctx, http.MethodGet, "getUpdates?"+q.Encode(), nil, &raw); err != nil {
		return nil, err
	}

	updates := make([]models.Update, 0, len(raw))
	for _, u := range raw {
		upd := models.Update{UpdateID: u.UpdateID}
		if m := u.Message; m != nil {
			upd.HasMessage = true
			upd.ChatID = m.Chat.ID
			upd.Text = m.Text
			if m.From != nil {
				upd.Sender = models.Profile{
					ID:        m.From.ID,
					Username:  m.From.Username,
					FirstName: m.From.FirstName,
					LastName:  m.From.LastName,
				}
			}
		}
		updates = append(updates, upd)
	}
	return updates, nil
}

// SendMessage retries network failures, 429 and 5xx with exponential backoff,
// waiting at least retry_after when the API asks for it.
func (c *HTTPClient) SendMessage(ctx context.Context, r models.Reply) error {
	body := sendMessageRequest{ChatID: r.ChatID, Text: r.Text, ParseMode: r.ParseMode}

	// A 429 names how long to wait; that wins over the exponential step.
	var retryAfter time.Duration
	base := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	b := retry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := base.Next()
		if stop {
			return 0, true
		}
		if retryAfter > next {
			next = retryAfter
		}
		retryAfter = 0
		return next, false
	})

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := c.call(ctx, http.MethodPost, "sendMessage", body, nil)
		var apiErr *APIError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &apiErr) && !apiErr.Retryable():
			return err
		case apiErr != nil && apiErr.RetryAfter > 0:
			retryAfter = time.Duration(apiErr.RetryAfter) * c.retryAfterUnit
			return retry.RetryableError(err)
		case ctx.Err() != nil:
			return err
		default:
			return retry.RetryableError(err)
		}
	})
}

func (c *HTTPClient) GetMe(ctx context.Context) (models.BotInfo, error) {
	var u apiUser
	if err := c.call(ctx, http.MethodGet, "getMe", nil, &u); err != nil {
		return models.BotInfo{}, err
	}
	return models.BotInfo{ID: u.ID, Username: u.Username, FirstName: u.FirstName}, nil
}

// call performs one Bot API request and decodes its result into out.
func (c *HTTPClient) call(ctx context.Context, method, apiMethod string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/bot"+c.token+"/"+apiMethod, reader)
	if err != nil {
		return c.redact(err)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.redact(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", apiMethod, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(payload, &envelope); err != nil && resp.StatusCode/100 == 2 {
		return fmt.Errorf("decode %s response: %w", apiMethod, err)
	}
	if resp.StatusCode/100 != 2 || !envelope.OK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: envelope.ErrorCode, Description: envelope.Description}
		if envelope.Parameters != nil {
			apiErr.RetryAfter = envelope.Parameters.RetryAfter
		}
		return apiErr
	}

	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", apiMethod, err)
	}
	return nil
}

// redact keeps the bot token out of errors that embed the request URL.
func (c *HTTPClient) redact(err error) error {
	var ue *url.Error
	if c.token != "" && errors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, c.token, "<token>")
	}
	return err
}
