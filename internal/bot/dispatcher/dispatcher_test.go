package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
	"github.com/dmitrijs2005/diarybot/internal/bot/services"
	"github.com/dmitrijs2005/diarybot/internal/bot/state"
	"github.com/dmitrijs2005/diarybot/internal/bot/storage"
	"github.com/dmitrijs2005/diarybot/internal/common"
	"github.com/dmitrijs2005/diarybot/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSync struct {
	services.SyncService

	enableOK bool
	pushed   int
	pulled   int
	status   models.SyncStatus
	calls    []string
}

func (f *fakeSync) EnableSync(ctx context.Context, userID int64) bool {
	f.calls = append(f.calls, "enable")
	return f.enableOK
}
func (f *fakeSync) DisableSync(ctx context.Context, userID int64) bool {
	f.calls = append(f.calls, "disable")
	return true
}
func (f *fakeSync) SyncUserToShared(ctx context.Context, userID int64) int {
	f.calls = append(f.calls, "push")
	return f.pushed
}
func (f *fakeSync) SyncSharedToUser(ctx context.Context, userID int64) int {
	f.calls = append(f.calls, "pull")
	return f.pulled
}
func (f *fakeSync) GetSyncStatus(ctx context.Context, userID int64) models.SyncStatus {
	f.calls = append(f.calls, "status")
	return f.status
}

type fakeBridge struct {
	linkErr    error
	linkToken  string
	linked     models.Profile
	link       models.AuthLink
	linkReqErr error
}

func (f *fakeBridge) Link(ctx context.Context, token string, p models.Profile) error {
	f.linkToken = token
	f.linked = p
	return f.linkErr
}
func (f *fakeBridge) RequestLink(ctx context.Context) (models.AuthLink, error) {
	return f.link, f.linkReqErr
}

type fixture struct {
	d      *Dispatcher
	diary  services.DiaryService
	sync   *fakeSync
	bridge *fakeBridge
	states *state.Tracker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		diary:  services.NewDiaryService(db, time.UTC),
		sync:   &fakeSync{enableOK: true},
		bridge: &fakeBridge{},
		states: state.NewTracker(),
	}
	f.d = New(f.diary, f.sync, f.states, f.bridge, logging.Nop())
	return f
}

var alice = models.Profile{ID: 10, Username: "alice", FirstName: "Alice"}

func (f *fixture) send(t *testing.T, text string) []models.Reply {
	t.Helper()
	replies, err := f.d.Dispatch(context.Background(), models.Update{
		UpdateID: 1, HasMessage: true, ChatID: 99, Sender: alice, Text: text,
	})
	require.NoError(t, err)
	return replies
}

func (f *fixture) entries(t *testing.T) []models.Entry {
	t.Helper()
	list, err := f.diary.ListEntries(context.Background(), alice.ID, 100)
	require.NoError(t, err)
	return list
}

func TestAddFlow_WithDelimiter(t *testing.T) {
	f := newFixture(t)

	replies := f.send(t, "/add")
	require.Len(t, replies, 1)
	assert.Equal(t, models.ParseModeMarkdown, replies[0].ParseMode)
	assert.Equal(t, state.AwaitingEntryBody, f.states.Get(alice.ID))

	replies = f.send(t, "My title | My body")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "My title")
	assert.Equal(t, int64(99), replies[0].ChatID)
	assert.Equal(t, state.Idle, f.states.Get(alice.ID))

	list := f.entries(t)
	require.Len(t, list, 1)
	assert.Equal(t, "My title", list[0].Title)
	assert.Equal(t, "My body", list[0].Content)

	replies = f.send(t, "something unrelated")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "/add")
	assert.Len(t, f.entries(t), 1)
}

func TestAddFlow_WithoutDelimiter(t *testing.T) {
	f := newFixture(t)
	msg := strings.Repeat("0123456789", 5)

	f.send(t, "/add")
	f.send(t, msg)

	list := f.entries(t)
	require.Len(t, list, 1)
	assert.Equal(t, msg[:30]+"...", list[0].Title)
	assert.Equal(t, msg, list[0].Content)
}

func TestAddFlow_EmptyTitleStillResetsState(t *testing.T) {
	f := newFixture(t)

	f.send(t, "/add")
	replies := f.send(t, "|")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "title")
	assert.Equal(t, state.Idle, f.states.Get(alice.ID))
	assert.Empty(t, f.entries(t))
}

func TestIdleText_SuggestsAddAndQuotesPrefix(t *testing.T) {
	f := newFixture(t)
	msg := strings.Repeat("x", 60)

	replies := f.send(t, msg)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, strings.Repeat("x", 50)+"...")
	assert.NotContains(t, replies[0].Text, strings.Repeat("x", 51))
	assert.Empty(t, f.entries(t))
}

func TestEveryMessageRegistersSender(t *testing.T) {
	f := newFixture(t)

	f.send(t, "/help")
	n, err := f.diary.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)

	replies := f.send(t, "/dance")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Unknown command")
}

func TestNonMessageUpdatesAreIgnored(t *testing.T) {
	f := newFixture(t)

	replies, err := f.d.Dispatch(context.Background(), models.Update{UpdateID: 3})
	require.NoError(t, err)
	assert.Empty(t, replies)
}

func TestStartShowsStats(t *testing.T) {
	f := newFixture(t)
	_, err := f.diary.AddEntry(context.Background(), alice.ID, "t", "", "2026-01-02")
	require.NoError(t, err)

	replies := f.send(t, "/start")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Alice")
	assert.Contains(t, replies[0].Text, "Entries: 1")
	assert.Contains(t, replies[0].Text, "2026-01-02")
}

func TestEntries_PreviewAndEmpty(t *testing.T) {
	f := newFixture(t)

	replies := f.send(t, "/entries")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "no entries")

	_, err := f.diary.AddEntry(context.Background(), alice.ID, "long", strings.Repeat("b", 200), "")
	require.NoError(t, err)

	replies = f.send(t, "/entries")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, strings.Repeat("b", 150)+"...")
	assert.NotContains(t, replies[0].Text, strings.Repeat("b", 151))
}

func TestEntriesAll_ChunksLongOutput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		_, err := f.diary.AddEntry(ctx, alice.ID, fmt.Sprintf("entry %02d", i), strings.Repeat("c", 100), "")
		require.NoError(t, err)
	}

	replies := f.send(t, "/entries_all")
	require.Greater(t, len(replies), 1)

	var joined strings.Builder
	for _, r := range replies {
		assert.LessOrEqual(t, len([]rune(r.Text)), MaxMessageLen)
		joined.WriteString(r.Text)
	}
	assert.True(t, strings.HasPrefix(joined.String(), "📚"))
	assert.Contains(t, joined.String(), "entry 49")
	assert.Contains(t, joined.String(), "entry 00")
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	_, err := f.diary.AddEntry(context.Background(), alice.ID, "good day", "", "")
	require.NoError(t, err)

	replies := f.send(t, "/search")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "/search your text")

	replies = f.send(t, "/search day")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "good day")

	replies = f.send(t, "/search Day")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Nothing found")
}

func TestStats_ListsLatestFive(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 6; i++ {
		_, err := f.diary.AddEntry(context.Background(), alice.ID, fmt.Sprintf("e%d", i), "", fmt.Sprintf("2026-10-0%d", i))
		require.NoError(t, err)
	}

	replies := f.send(t, "/stats")
	require.Len(t, replies, 1)
	text := replies[0].Text
	assert.Contains(t, text, "Entries: 6")
	assert.Contains(t, text, "2026-10-01")
	assert.Contains(t, text, "• e6 (2026-10-06)")
	assert.Contains(t, text, "• e2 (2026-10-02)")
	assert.NotContains(t, text, "• e1 ")
}

func TestEditAndDelete(t *testing.T) {
	f := newFixture(t)
	id, err := f.diary.AddEntry(context.Background(), alice.ID, "old", "body", "")
	require.NoError(t, err)

	replies := f.send(t, fmt.Sprintf("/edit #%d new | new body", id))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "updated")
	assert.Contains(t, replies[0].Text, "📌 new\nnew body")
	assert.Contains(t, replies[0].Text, fmt.Sprintf("ID: #%d", id))

	list := f.entries(t)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].Title)
	assert.Equal(t, "new body", list[0].Content)

	replies = f.send(t, fmt.Sprintf("/edit %d | only body", id))
	require.Len(t, replies, 1)
	assert.Equal(t, "new", f.entries(t)[0].Title)
	assert.Equal(t, "only body", f.entries(t)[0].Content)

	replies = f.send(t, "/edit x y")
	assert.Contains(t, replies[0].Text, "Usage")

	replies = f.send(t, "/delete 9999")
	assert.Contains(t, replies[0].Text, "not found")

	replies = f.send(t, fmt.Sprintf("/delete %d", id))
	assert.Contains(t, replies[0].Text, "deleted")
	assert.Empty(t, f.entries(t))
}

func TestSyncNow_TwoReplies(t *testing.T) {
	f := newFixture(t)
	f.sync.pushed = 3

	replies := f.send(t, "/sync_now")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0].Text, "Starting")
	assert.Contains(t, replies[1].Text, "Entries synced: 3")

	f.sync.pushed = 0
	replies = f.send(t, "/sync_now")
	require.Len(t, replies, 2)
	assert.Equal(t, "ℹ️ No new entries to sync.", replies[1].Text)
	assert.NotContains(t, replies[1].Text, "/sync_enable")
	assert.Equal(t, []string{"push", "push"}, f.sync.calls)
}

func TestSyncCommands(t *testing.T) {
	f := newFixture(t)
	f.sync.status = models.SyncStatus{LocalEntries: 2, SharedEntries: 7, Linked: false, CheckedAt: time.Now()}

	replies := f.send(t, "/sync_status")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Entries here: 2")
	assert.Contains(t, replies[0].Text, "web app: 7")
	assert.Contains(t, replies[0].Text, "/sync_enable")

	replies = f.send(t, "/sync_enable")
	assert.Contains(t, replies[0].Text, "on")

	f.sync.enableOK = false
	replies = f.send(t, "/sync_enable")
	assert.Contains(t, replies[0].Text, "Could not")

	replies = f.send(t, "/sync_disable")
	assert.Contains(t, replies[0].Text, "off")

	f.sync.pulled = 4
	replies = f.send(t, "/sync_pull")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[1].Text, "Copied 4")

	assert.Equal(t, []string{"status", "enable", "enable", "disable", "pull"}, f.sync.calls)
}

func TestStartAuthLink(t *testing.T) {
	f := newFixture(t)

	replies := f.send(t, "/start auth_tok123")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "linked")
	assert.Equal(t, "tok123", f.bridge.linkToken)
	assert.Equal(t, alice, f.bridge.linked)

	f.bridge.linkErr = common.ErrInvalidToken
	replies = f.send(t, "/start auth_bad")
	assert.Contains(t, replies[0].Text, "invalid or expired")
}

func TestStartAuthLink_BridgeFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.bridge.linkErr = errors.New("connection refused")

	replies, err := f.d.Dispatch(context.Background(), models.Update{
		HasMessage: true, ChatID: 1, Sender: alice, Text: "/start auth_x",
	})
	require.Error(t, err)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Could not reach")
}

func TestWebCommand(t *testing.T) {
	f := newFixture(t)
	f.bridge.link = models.AuthLink{URL: "https://diary.example/auth/abc", ExpiresAt: "2026-10-14T12:00:00Z"}

	replies := f.send(t, "/web")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "https://diary.example/auth/abc")
	assert.Contains(t, replies[0].Text, "2026-10-14T12:00:00Z")

	replies = f.send(t, "/auth")
	assert.Contains(t, replies[0].Text, "https://diary.example/auth/abc")
}

func TestWebCommand_NoBridge(t *testing.T) {
	f := newFixture(t)
	f.d.bridge = nil

	replies := f.send(t, "/web")
	require.Len(t, replies, 1)
	assert.Equal(t, bridgeMissingMsg, replies[0].Text)
}

func TestStorageFailureSurfacesError(t *testing.T) {
	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	d := New(services.NewDiaryService(db, time.UTC), &fakeSync{}, state.NewTracker(), nil, logging.Nop())
	replies, err := d.Dispatch(context.Background(), models.Update{
		HasMessage: true, ChatID: 1, Sender: alice, Text: "/entries",
	})
	require.Error(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, storageErrorMsg, replies[0].Text)
}
