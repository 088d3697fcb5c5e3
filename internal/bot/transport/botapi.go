package transport

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
)

// BotAPIClient is the framework-managed transport. The library has no
// context support, so calls run in a goroutine and are abandoned when ctx
// ends; a pending long poll then finishes on its own within PollTimeout.
type BotAPIClient struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
}

// NewBotAPIClient builds the transport without contacting the API.
func NewBotAPIClient(opts Options) *BotAPIClient {
	opts = opts.normalized()

	api := &tgbotapi.BotAPI{
		Token:  opts.Token,
		Client: opts.HTTPClient,
		Buffer: 100,
	}
	api.SetAPIEndpoint(opts.BaseURL + "/bot%s/%s")

	return &BotAPIClient{api: api, pollTimeout: pollSeconds(opts.PollTimeout)}
}

func (c *BotAPIClient) FetchUpdates(ctx context.Context, offset int64) ([]models.Update, error) {
	cfg := tgbotapi.NewUpdate(int(offset))
	cfg.Timeout = c.pollTimeout

	raw, err := await(ctx, func() ([]tgbotapi.Update, error) { return c.api.GetUpdates(cfg) })
	if err != nil {
		return nil, err
	}

	updates := make([]models.Update, 0, len(raw))
	for _, u := range raw {
		upd := models.Update{UpdateID: int64(u.UpdateID)}
		if m := u.Message; m != nil {
			upd.HasMessage = true
			upd.Text = m.Text
			if m.Chat != nil {
				upd.ChatID = m.Chat.ID
			}
			if m.From != nil {
				upd.Sender = models.Profile{
					ID:        m.From.ID,
					Username:  m.From.UserName,
					FirstName: m.From.FirstName,
					LastName:  m.From.LastName,
				}
			}
		}
		updates = append(updates, upd)
	}
	return updates, nil
}

func (c *BotAPIClient) SendMessage(ctx context.Context, r models.Reply) error {
	msg := tgbotapi.NewMessage(r.ChatID, r.Text)
	msg.ParseMode = r.ParseMode

	_, err := await(ctx, func() (tgbotapi.Message, error) { return c.api.Send(msg) })
	return err
}

func (c *BotAPIClient) GetMe(ctx context.Context) (models.BotInfo, error) {
	u, err := await(ctx, c.api.GetMe)
	if err != nil {
		return models.BotInfo{}, err
	}
	return models.BotInfo{ID: u.ID, Username: u.UserName, FirstName: u.FirstName}, nil
}

func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
