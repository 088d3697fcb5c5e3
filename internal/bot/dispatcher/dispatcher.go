// Package dispatcher turns inbound chat messages into diary operations and
// reply messages. Commands start with "/"; anything else is free text whose
// meaning depends on the sender's conversation state.
package dispatcher

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
	"github.com/dmitrijs2005/diarybot/internal/bot/services"
	"github.com/dmitrijs2005/diarybot/internal/bot/state"
	"github.com/dmitrijs2005/diarybot/internal/logging"
)

// AuthBridge is the web application's account-linking API.
type AuthBridge interface {
	Link(ctx context.Context, token string, p models.Profile) error
	RequestLink(ctx context.Context) (models.AuthLink, error)
}

// Dispatcher handles one update at a time. It is not meant to be called
// concurrently for the same user.
type Dispatcher struct {
	diary  services.DiaryService
	sync   services.SyncService
	states *state.Tracker
	bridge AuthBridge
	log    logging.Logger
}

// New returns a Dispatcher. bridge may be nil, in which case the linking
// commands answer that the web application is not configured.
func New(diary services.DiaryService, sync services.SyncService, states *state.Tracker, bridge AuthBridge, log logging.Logger) *Dispatcher {
	return &Dispatcher{
		diary:  diary,
		sync:   sync,
		states: states,
		bridge: bridge,
		log:    log.With("component", "dispatcher"),
	}
}

// request carries one message through a handler and collects its replies.
type request struct {
	ctx     context.Context
	chatID  int64
	user    models.Profile
	args    string
	replies []models.Reply
	errs    []error
}

func (r *request) reply(text string) { r.replyMode(text, models.ParseModeNone) }

func (r *request) replyMode(text, mode string) {
	for _, chunk := range SplitMessage(text, MaxMessageLen) {
		r.replies = append(r.replies, models.Reply{ChatID: r.chatID, Text: chunk, ParseMode: mode})
	}
}

// fail records an internal error; the user gets text instead.
func (r *request) fail(err error, text string) {
	r.errs = append(r.errs, err)
	r.reply(text)
}

// ParseCommand splits "/Cmd@bot args" into ("cmd", "args"). ok is false when
// text is not a command.
func ParseCommand(text string) (cmd, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	token, rest, _ := strings.Cut(text[1:], " ")
	if i := strings.IndexAny(token, "\n\t"); i >= 0 {
		rest = token[i+1:] + " " + rest
		token = token[:i]
	}
	if at := strings.IndexByte(token, '@'); at >= 0 {
		token = token[:at]
	}
	return strings.ToLower(token), strings.TrimSpace(rest), true
}

// Dispatch handles a single update and returns the replies to send, in order.
// The error is non-nil when a storage or bridge call failed; the replies
// already tell the user about it.
func (d *Dispatcher) Dispatch(ctx context.Context, u models.Update) ([]models.Reply, error) {
	if !u.HasMessage || u.Text == "" {
		return nil, nil
	}

	r := &request{ctx: ctx, chatID: u.ChatID, user: u.Sender}
	if err := d.diary.RegisterUser(ctx, u.Sender); err != nil {
		d.log.Warn(ctx, "user registration failed", "user_id", u.Sender.ID, "error", err)
		r.errs = append(r.errs, err)
	}

	cmd, args, isCommand := ParseCommand(u.Text)
	if !isCommand {
		d.handleText(r, u.Text)
		return r.replies, errors.Join(r.errs...)
	}

	r.args = args
	d.log.Debug(ctx, "command", "user_id", u.Sender.ID, "command", cmd)

	switch cmd {
	case "start":
		d.handleStart(r)
	case "help":
		d.handleHelp(r)
	case "entries":
		d.handleEntries(r)
	case "entries_all":
		d.handleEntriesAll(r)
	case "add":
		d.handleAdd(r)
	case "search":
		d.handleSearch(r)
	case "stats":
		d.handleStats(r)
	case "edit":
		d.handleEdit(r)
	case "delete":
		d.handleDelete(r)
	case "sync_status":
		d.handleSyncStatus(r)
	case "sync_enable":
		d.handleSyncEnable(r)
	case "sync_disable":
		d.handleSyncDisable(r)
	case "sync_now":
		d.handleSyncNow(r)
	case "sync_pull":
		d.handleSyncPull(r)
	case "web", "auth":
		d.handleWeb(r)
	default:
		r.reply("Unknown command. Send /help to see what I can do.")
	}

	return r.replies, errors.Join(r.errs...)
}

// handleText consumes free text. While an entry is awaited the text becomes
// the entry and the state goes back to idle whatever the outcome.
func (d *Dispatcher) handleText(r *request, text string) {
	userID := r.user.ID
	if d.states.Get(userID) != state.AwaitingEntryBody {
		r.reply("💬 Got your message: " + Truncate(text, suggestQuoteLen) + "\n\n" +
			"Want to save it to your diary? Send /add first, or /help for the list of commands.")
		return
	}
	defer d.states.Reset(userID)

	title, body := DeriveEntry(text)
	id, err := d.diary.AddEntry(r.ctx, userID, title, body, "")
	if err != nil {
		d.replyAddError(r, err)
		return
	}

	r.reply("✅ Entry saved!\n\n📌 " + title + "\nID: #" + itoa(id))
}
