package dispatcher

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
	"github.com/dmitrijs2005/diarybot/internal/bot/state"
	"github.com/dmitrijs2005/diarybot/internal/common"
)

const (
	entriesLimit    = 10
	entriesPreview  = 150
	allLimit        = 50
	allPreview      = 100
	searchPreview   = 100
	statsRecent     = 5
	noneYet         = "none yet"
	storageErrorMsg = "❌ Something went wrong while reading your diary. Please try again later."
)

const helpText = `📖 Diary bot help

Basics:
/start - say hello and see your stats
/help - this message
/entries - your latest 10 entries
/entries_all - up to 50 entries
/add - add a new entry
/search <text> - find entries (case-sensitive)
/stats - diary statistics
/edit <id> <title> | <body> - change an entry
/delete <id> - remove an entry

Web app sync:
/sync_status - sync status
/sync_enable - turn sync on
/sync_disable - turn sync off
/sync_now - send your entries to the web app
/sync_pull - copy web app entries into your diary
/web - get a link to sign in on the web app

Adding an entry:
1. Send /add
2. Send "Title | Entry text", or just the text and I will pick a title.`

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func orNone(s string) string {
	if s == "" {
		return noneYet
	}
	return s
}

func (d *Dispatcher) handleStart(r *request) {
	if token, ok := strings.CutPrefix(r.args, "auth_"); ok {
		d.handleAuthLink(r, token)
		return
	}

	st, err := d.diary.GetStats(r.ctx, r.user.ID)
	if err != nil {
		r.fail(err, storageErrorMsg)
		return
	}

	name := r.user.FirstName
	if name == "" {
		name = r.user.Username
	}
	if name == "" {
		name = "there"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi, %s! 👋\n\nWelcome to your personal diary.\n\n", name)
	fmt.Fprintf(&b, "📊 Your stats:\n• Entries: %d\n• First entry: %s\n• Last entry: %s\n\n",
		st.Total, orNone(st.First), orNone(st.Last))
	b.WriteString("Commands:\n/help - help\n/entries - your entries\n/add - add an entry\n" +
		"/search - search entries\n/stats - statistics\n/web - link the web app")
	r.reply(b.String())
}

func (d *Dispatcher) handleHelp(r *request) {
	r.reply(helpText)
}

func writeEntry(b *strings.Builder, e models.Entry, preview int) {
	fmt.Fprintf(b, "📅 %s\n📌 %s\n", e.Date, e.Title)
	if e.Content != "" {
		b.WriteString(Truncate(e.Content, preview))
		b.WriteByte('\n')
	}
	fmt.Fprintf(b, "ID: #%d\n\n", e.ID)
}

func (d *Dispatcher) handleEntries(r *request) {
	list, err := d.diary.ListEntries(r.ctx, r.user.ID, entriesLimit)
	if err != nil {
		r.fail(err, storageErrorMsg)
		return
	}
	if len(list) == 0 {
		r.reply("You have no entries yet. Send /add to create the first one! 📝")
		return
	}

	var b strings.Builder
	b.WriteString("📝 Your latest entries:\n\n")
	for _, e := range list {
		writeEntry(&b, e, entriesPreview)
	}
	r.reply(b.String())
}

func (d *Dispatcher) handleEntriesAll(r *request) {
	list, err := d.diary.ListEntries(r.ctx, r.user.ID, allLimit)
	if err != nil {
		r.fail(err, storageErrorMsg)
		return
	}
	if len(list) == 0 {
		r.reply("You have no entries yet.")
		return
	}

	var b strings.Builder
	b.WriteString("📚 All your entries:\n\n")
	for _, e := range list {
		fmt.Fprintf(&b, "📅 %s - %s\n", e.Date, e.Title)
		if e.Content != "" {
			b.WriteString(Truncate(e.Content, allPreview))
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "ID: #%d\n\n", e.ID)
	}
	r.reply(b.String())
}

func (d *Dispatcher) handleAdd(r *request) {
	d.states.Set(r.user.ID, state.AwaitingEntryBody)
	r.replyMode("📝 New entry\n\n"+
		"Send a message like:\n`Title | Entry text`\n\n"+
		"Example: `My day | It was a great day!`\n\n"+
		"Or just send the text and I will pick a title.", models.ParseModeMarkdown)
}

func (d *Dispatcher) replyAddError(r *request, err error) {
	switch {
	case errors.Is(err, common.ErrEmptyTitle):
		r.reply("❌ The entry needs a title. Send /add and try again.")
	default:
		r.fail(err, "❌ Could not save the entry.")
	}
}

func (d *Dispatcher) handleSearch(r *request) {
	if r.args == "" {
		r.replyMode("🔍 Tell me what to look for:\n`/search your text`", models.ParseModeMarkdown)
		return
	}

	list, err := d.diary.SearchEntries(r.ctx, r.user.ID, r.args)
	if err != nil {
		r.fail(err, storageErrorMsg)
		return
	}
	if len(list) == 0 {
		r.reply(fmt.Sprintf("Nothing found for '%s'.", r.args))
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Results for '%s':\n\n", r.args)
	for _, e := range list {
		writeEntry(&b, e, searchPreview)
	}
	r.reply(b.String())
}

func (d *Dispatcher) handleStats(r *request) {
	st, err := d.diary.GetStats(r.ctx, r.user.ID)
	if err != nil {
		r.fail(err, storageErrorMsg)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Your stats:\n\n📝 Entries: %d\n📅 First entry: %s\n📅 Last entry: %s\n",
		st.Total, orNone(st.First), orNone(st.Last))

	recent, err := d.diary.ListEntries(r.ctx, r.user.ID, statsRecent)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	if len(recent) > 0 {
		b.WriteString("\n📚 Latest entries:\n")
		for _, e := range recent {
			fmt.Fprintf(&b, "• %s (%s)\n", e.Title, e.Date)
		}
	}
	r.reply(b.String())
}

// parseID accepts "12" and "#12".
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (d *Dispatcher) handleDelete(r *request) {
	id, ok := parseID(r.args)
	if !ok {
		r.reply("Usage: /delete <id>")
		return
	}

	deleted, err := d.diary.DeleteEntry(r.ctx, r.user.ID, id)
	if err != nil {
		r.fail(err, "❌ Could not delete the entry.")
		return
	}
	if !deleted {
		r.reply(fmt.Sprintf("Entry #%d not found.", id))
		return
	}
	r.reply(fmt.Sprintf("🗑 Entry #%d deleted.", id))
}

func (d *Dispatcher) handleEdit(r *request) {
	const usage = "Usage: /edit <id> <title> | <body>\nLeave either side empty to keep it."

	idArg, rest, _ := strings.Cut(r.args, " ")
	id, ok := parseID(idArg)
	if !ok {
		r.reply(usage)
		return
	}

	var title, body *string
	t, b, hasBody := strings.Cut(rest, "|")
	if t = strings.TrimSpace(t); t != "" {
		title = &t
	}
	if b = strings.TrimSpace(b); hasBody && b != "" {
		body = &b
	}
	if title == nil && body == nil {
		r.reply(usage)
		return
	}

	updated, err := d.diary.UpdateEntry(r.ctx, r.user.ID, id, title, body)
	if err != nil {
		r.fail(err, "❌ Could not update the entry.")
		return
	}
	if !updated {
		r.reply(fmt.Sprintf("Entry #%d not found.", id))
		return
	}

	e, found, err := d.diary.GetEntry(r.ctx, r.user.ID, id)
	if err != nil || !found {
		if err != nil {
			r.errs = append(r.errs, err)
		}
		r.reply(fmt.Sprintf("✏️ Entry #%d updated.", id))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✏️ Entry #%d updated.\n\n", id)
	writeEntry(&sb, *e, entriesPreview)
	r.reply(strings.TrimRight(sb.String(), "\n"))
}

func (d *Dispatcher) handleSyncStatus(r *request) {
	st := d.sync.GetSyncStatus(r.ctx, r.user.ID)

	var b strings.Builder
	b.WriteString("🔄 Sync status:\n\n")
	fmt.Fprintf(&b, "📝 Entries here: %d\n", st.LocalEntries)
	fmt.Fprintf(&b, "🌐 Entries in the web app: %d\n", st.SharedEntries)
	if st.Linked {
		b.WriteString("🔗 Sync: ✅ on\n")
	} else {
		b.WriteString("🔗 Sync: ❌ off\n")
	}
	if !st.CheckedAt.IsZero() {
		fmt.Fprintf(&b, "⏰ Checked at: %s\n", st.CheckedAt.Format("2006-01-02 15:04:05"))
	}
	if !st.Linked {
		b.WriteString("\n💡 Send /sync_enable to turn sync on.")
	}
	r.reply(b.String())
}

func (d *Dispatcher) handleSyncEnable(r *request) {
	if !d.sync.EnableSync(r.ctx, r.user.ID) {
		r.reply("❌ Could not turn sync on.")
		return
	}
	r.reply("✅ Sync is on!\n\nYour entries will be available in the web app too.\n" +
		"Send /sync_now to sync right away.")
}

func (d *Dispatcher) handleSyncDisable(r *request) {
	if !d.sync.DisableSync(r.ctx, r.user.ID) {
		r.reply("❌ Could not turn sync off.")
		return
	}
	r.reply("❌ Sync is off.\nYour entries will no longer be synced with the web app.")
}

func (d *Dispatcher) handleSyncNow(r *request) {
	r.reply("🔄 Starting sync...")

	n := d.sync.SyncUserToShared(r.ctx, r.user.ID)
	if n == 0 {
		r.reply("ℹ️ No new entries to sync.")
		return
	}
	r.reply(fmt.Sprintf("✅ Sync finished!\n\n📝 Entries synced: %d\n🌐 They are now in the web app.", n))
}

func (d *Dispatcher) handleSyncPull(r *request) {
	r.reply("🔄 Fetching entries from the web app...")

	n := d.sync.SyncSharedToUser(r.ctx, r.user.ID)
	if n == 0 {
		r.reply("ℹ️ Nothing was copied.\nIf sync is off, send /sync_enable first.")
		return
	}
	r.reply(fmt.Sprintf("✅ Copied %d entries from the web app.", n))
}
