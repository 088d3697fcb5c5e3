package webauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
	"github.com/dmitrijs2005/diarybot/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL+"/", nil)
	c.retryBase = time.Millisecond
	return c
}

func TestLink_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/link", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Correlation-Id"))

		var got map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "tok", got["token"])
		assert.EqualValues(t, 42, got["telegramId"])
		user := got["telegramUser"].(map[string]any)
		assert.Equal(t, "ann", user["username"])
		assert.Equal(t, "Ann", user["first_name"])

		_, _ = w.Write([]byte(`{"success":true}`))
	})

	err := c.Link(context.Background(), "tok", models.Profile{ID: 42, Username: "ann", FirstName: "Ann"})
	require.NoError(t, err)
}

func TestLink_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"token expired"}`))
	})

	err := c.Link(context.Background(), "old", models.Profile{ID: 1})
	require.ErrorIs(t, err, common.ErrInvalidToken)
	assert.Contains(t, err.Error(), "token expired")
	assert.NotErrorIs(t, err, common.ErrBridge)
}

func TestLink_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad token format"}`))
	})

	err := c.Link(context.Background(), "x", models.Profile{ID: 1})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "bad token format", httpErr.Message)
	assert.ErrorIs(t, err, common.ErrBridge)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRequestLink_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/request", r.URL.Path)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"authUrl":"https://diary.example/auth/abc","expiresAt":"2026-10-14T12:00:00Z"}`))
	})

	link, err := c.RequestLink(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.AuthLink{URL: "https://diary.example/auth/abc", ExpiresAt: "2026-10-14T12:00:00Z"}, link)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRequestLink_EmptyURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.RequestLink(context.Background())
	require.ErrorIs(t, err, common.ErrBridge)
}

func TestUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", nil)
	c.retryBase = time.Millisecond

	_, err := c.RequestLink(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBridge)
}
