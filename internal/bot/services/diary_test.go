package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
	"github.com/dmitrijs2005/diarybot/internal/bot/storage"
	"github.com/dmitrijs2005/diarybot/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLocal(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newDiary returns a diary whose clock ticks one second per call.
func newDiary(t *testing.T, db *sql.DB, start time.Time) *diaryService {
	t.Helper()
	s := NewDiaryService(db, time.UTC).(*diaryService)
	clock := start
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

var day = time.Date(2026, 10, 14, 22, 30, 0, 0, time.UTC)

func TestAddEntry_RegistersUnknownUser(t *testing.T) {
	db := setupLocal(t)
	s := newDiary(t, db, day)
	ctx := context.Background()

	id, err := s.AddEntry(ctx, 555, "title", "body", "")
	require.NoError(t, err)
	assert.Positive(t, id)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.RegisterUser(ctx, models.Profile{ID: 555, Username: "u"}))
	n, err = s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e, ok, err := s.GetEntry(ctx, 555, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2026-10-14", e.Date)
}

func TestAddEntry_DefaultDateUsesLocation(t *testing.T) {
	db := setupLocal(t)
	s := newDiary(t, db, day)
	s.loc = time.FixedZone("UTC+3", 3*3600)

	id, err := s.AddEntry(context.Background(), 1, "late", "", "")
	require.NoError(t, err)

	e, ok, err := s.GetEntry(context.Background(), 1, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2026-10-15", e.Date)
}

func TestAddEntry_InvalidInput(t *testing.T) {
	s := newDiary(t, setupLocal(t), day)

	_, err := s.AddEntry(context.Background(), 1, "  ", "body", "")
	require.ErrorIs(t, err, common.ErrEmptyTitle)

	_, err = s.AddEntry(context.Background(), 1, "t", "body", "14.10.2026")
	require.ErrorIs(t, err, common.ErrInvalidDate)
}

func TestListEntries_SameDateNewestCreatedFirst(t *testing.T) {
	s := newDiary(t, setupLocal(t), day)
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		_, err := s.AddEntry(ctx, 1, title, "", "2026-10-10")
		require.NoError(t, err)
	}

	list, err := s.ListEntries(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "three", list[0].Title)
	assert.Equal(t, "two", list[1].Title)
	assert.Equal(t, "one", list[2].Title)
}

func TestSearchEntries_OtherUsersNeverReturned(t *testing.T) {
	s := newDiary(t, setupLocal(t), day)
	ctx := context.Background()

	_, err := s.AddEntry(ctx, 1, "a good day", "", "")
	require.NoError(t, err)
	_, err = s.AddEntry(ctx, 1, "Daylight", "", "")
	require.NoError(t, err)
	_, err = s.AddEntry(ctx, 2, "day", "day", "")
	require.NoError(t, err)

	got, err := s.SearchEntries(ctx, 1, "day")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a good day", got[0].Title)
}

func TestUpdateDelete_ScopedToOwner(t *testing.T) {
	s := newDiary(t, setupLocal(t), day)
	ctx := context.Background()

	id, err := s.AddEntry(ctx, 1, "mine", "body", "")
	require.NoError(t, err)

	title := "stolen"
	ok, err := s.UpdateEntry(ctx, 2, id, &title, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.DeleteEntry(ctx, 2, id)
	require.NoError(t, err)
	assert.False(t, ok)

	empty := ""
	_, err = s.UpdateEntry(ctx, 1, id, &empty, nil)
	require.ErrorIs(t, err, common.ErrEmptyTitle)

	body := "new body"
	ok, err = s.UpdateEntry(ctx, 1, id, nil, &body)
	require.NoError(t, err)
	assert.True(t, ok)

	e, found, err := s.GetEntry(ctx, 1, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "mine", e.Title)
	assert.Equal(t, "new body", e.Content)
	assert.True(t, e.UpdatedAt.After(e.CreatedAt))

	ok, err = s.DeleteEntry(ctx, 1, id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err = s.GetEntry(ctx, 1, id)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetStatsAndHasEntry(t *testing.T) {
	s := newDiary(t, setupLocal(t), day)
	ctx := context.Background()

	_, err := s.AddEntry(ctx, 1, "a", "x", "2026-01-01")
	require.NoError(t, err)
	_, err = s.AddEntry(ctx, 1, "b", "", "2026-03-01")
	require.NoError(t, err)

	st, err := s.GetStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{Total: 2, First: "2026-01-01", Last: "2026-03-01"}, st)

	has, err := s.HasEntry(ctx, 1, "a", "x", "2026-01-01")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.HasEntry(ctx, 2, "a", "x", "2026-01-01")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDiary_ClosedDBReturnsErrors(t *testing.T) {
	db := setupLocal(t)
	s := newDiary(t, db, day)
	require.NoError(t, db.Close())

	_, err := s.AddEntry(context.Background(), 1, "t", "", "")
	require.Error(t, err)

	_, err = s.ListEntries(context.Background(), 1, 10)
	require.Error(t, err)
}
