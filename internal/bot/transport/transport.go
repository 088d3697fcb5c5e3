// Package transport connects the bot to the chat platform's Bot API. Two
// implementations exist: a hand-written long-poll client over net/http and
// one built on go-telegram-bot-api; which one runs is a configuration choice.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
)

// Transport names accepted by New.
const (
	KindHTTP   = "http"
	KindBotAPI = "botapi"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Transport is what the ingestion loop needs from the platform.
type Transport interface {
	// FetchUpdates long-polls for updates with id >= offset. Offset 0 means
	// "whatever is pending".
	FetchUpdates(ctx context.Context, offset int64) ([]models.Update, error)
	SendMessage(ctx context.Context, r models.Reply) error
	GetMe(ctx context.Context) (models.BotInfo, error)
}

// Options configure either implementation.
type Options struct {
	BaseURL     string
	Token       string
	PollTimeout time.Duration
	// HTTPClient is optional. Its Timeout must exceed PollTimeout.
	HTTPClient *http.Client
}

func (o Options) normalized() Options {
	o.BaseURL = strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = 10 * time.Second
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.PollTimeout + 5*time.Second}
	}
	return o
}

// New returns the Transport named by kind.
func New(kind string, opts Options) (Transport, error) {
	switch kind {
	case KindHTTP, "":
		return NewHTTPClient(opts), nil
	case KindBotAPI:
		return NewBotAPIClient(opts), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", kind)
	}
}

// pollSeconds converts the long-poll wait to the whole seconds the API takes.
func pollSeconds(d time.Duration) int {
	s := int(d / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}
