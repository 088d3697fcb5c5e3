// Package poller runs the ingestion loop: long-poll the transport, hand each
// update to the dispatcher in order, send the replies, move the cursor.
package poller

import (
	"context"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
	"github.com/dmitrijs2005/diarybot/internal/logging"
	"github.com/sethvargo/go-retry"
)

// DefaultBackoff is the wait between failed fetches.
const DefaultBackoff = 5 * time.Second

// Transport is the subset of transport.Transport the loop uses.
type Transport interface {
	FetchUpdates(ctx context.Context, offset int64) ([]models.Update, error)
	SendMessage(ctx context.Context, r models.Reply) error
}

// Dispatcher turns one update into replies.
type Dispatcher interface {
	Dispatch(ctx context.Context, u models.Update) ([]models.Reply, error)
}

// Loop is the single worker that drives the bot. Updates are processed one
// at a time; the cursor only moves forward and updates below it are
// dropped as already seen.
type Loop struct {
	transport  Transport
	dispatcher Dispatcher
	backoff    time.Duration
	log        logging.Logger

	cursor    atomic.Int64
	processed atomic.Int64
}

// NewLoop returns a Loop. A non-positive backoff means DefaultBackoff.
func NewLoop(t Transport, d Dispatcher, backoff time.Duration, log logging.Logger) *Loop {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &Loop{
		transport:  t,
		dispatcher: d,
		backoff:    backoff,
		log:        log.With("component", "poller"),
	}
}

// Cursor is the offset of the next fetch; 0 until the first update is seen.
func (l *Loop) Cursor() int64 { return l.cursor.Load() }

// Processed counts updates handled since start.
func (l *Loop) Processed() int64 { return l.processed.Load() }

// Run polls until ctx is cancelled and then returns nil. Fetch errors are
// retried forever with a constant backoff; nothing an update does can stop
// the loop.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info(ctx, "ingestion loop started", "backoff", l.backoff.String())
	defer l.log.Info(ctx, "ingestion loop stopped", "cursor", l.Cursor())

	for ctx.Err() == nil {
		updates, err := l.fetch(ctx)
		if err != nil {
			// Only ctx cancellation ends the retry.
			return nil
		}

		for _, u := range updates {
			if u.UpdateID < l.Cursor() {
				l.log.Debug(ctx, "stale update skipped", "update_id", u.UpdateID, "cursor", l.Cursor())
				continue
			}

			l.handle(ctx, u)
			l.advance(u.UpdateID + 1)
			l.processed.Add(1)
			l.log.Debug(ctx, "cursor advanced", "cursor", l.Cursor())

			if ctx.Err() != nil {
				break
			}
		}
	}
	return nil
}

// advance moves the cursor to next unless it is already further.
func (l *Loop) advance(next int64) {
	for {
		cur := l.cursor.Load()
		if next <= cur || l.cursor.CompareAndSwap(cur, next) {
			return
		}
	}
}

func (l *Loop) fetch(ctx context.Context) ([]models.Update, error) {
	var updates []models.Update
	err := retry.Do(ctx, retry.NewConstant(l.backoff), func(ctx context.Context) error {
		var err error
		updates, err = l.transport.FetchUpdates(ctx, l.Cursor())
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		l.log.Warn(ctx, "fetch updates failed", "offset", l.Cursor(), "retry_in", l.backoff.String(), "error", err)
		return retry.RetryableError(err)
	})
	return updates, err
}

// handle dispatches one update and sends its replies. Errors and panics are
// logged; none of them escape.
func (l *Loop) handle(ctx context.Context, u models.Update) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error(ctx, "panic while handling update",
				"update_id", u.UpdateID, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	replies, err := l.dispatcher.Dispatch(ctx, u)
	if err != nil {
		l.log.Error(ctx, "update handled with errors", "update_id", u.UpdateID, "user_id", u.Sender.ID, "error", err)
	}

	for i, r := range replies {
		if err := l.transport.SendMessage(ctx, r); err != nil {
			l.log.Warn(ctx, "send reply failed",
				"update_id", u.UpdateID, "chat_id", r.ChatID, "part", i+1, "of", len(replies), "error", err)
		}
	}
}
