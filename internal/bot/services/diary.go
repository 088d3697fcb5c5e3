// Package services holds the bot's application services: the diary itself
// (users and their entries in the local store) and synchronisation with the
// web application's shared store.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
	"github.com/dmitrijs2005/diarybot/internal/bot/repositories/entries"
	"github.com/dmitrijs2005/diarybot/internal/bot/repositories/users"
	"github.com/dmitrijs2005/diarybot/internal/common"
	"github.com/dmitrijs2005/diarybot/internal/dbx"
)

// DiaryService is the entry store seen by the dispatcher and the sync engine.
//
// Every call checks out its own connection and returns it before returning.
// Absence is reported through bool results; errors are storage failures or
// invalid input (common.ErrEmptyTitle, common.ErrInvalidDate).
type DiaryService interface {
	RegisterUser(ctx context.Context, p models.Profile) error
	// AddEntry registers the user first. An empty date means today.
	AddEntry(ctx context.Context, userID int64, title, body, date string) (int64, error)
	UpdateEntry(ctx context.Context, userID, entryID int64, title, body *string) (bool, error)
	DeleteEntry(ctx context.Context, userID, entryID int64) (bool, error)
	GetEntry(ctx context.Context, userID, entryID int64) (*models.Entry, bool, error)
	ListEntries(ctx context.Context, userID int64, limit int) ([]models.Entry, error)
	SearchEntries(ctx context.Context, userID int64, query string) ([]models.Entry, error)
	GetStats(ctx context.Context, userID int64) (models.Stats, error)
	HasEntry(ctx context.Context, userID int64, title, body, date string) (bool, error)
	CountUsers(ctx context.Context) (int, error)
}

type diaryService struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

// NewDiaryService returns a DiaryService over the local store. loc decides
// which calendar day "today" is; nil means UTC.
func NewDiaryService(db *sql.DB, loc *time.Location) DiaryService {
	if loc == nil {
		loc = time.UTC
	}
	return &diaryService{db: db, loc: loc, now: time.Now}
}

func (s *diaryService) RegisterUser(ctx context.Context, p models.Profile) error {
	return dbx.WithConn(ctx, s.db, func(ctx context.Context, conn *sql.Conn) error {
		if err := users.NewSQLiteRepository(conn).Register(ctx, p, s.now()); err != nil {
			return fmt.Errorf("error registering user: %w", err)
		}
		return nil
	})
}

func (s *diaryService) AddEntry(ctx context.Context, userID int64, title, body, date string) (int64, error) {
	if strings.TrimSpace(title) == "" {
		return 0, common.ErrEmptyTitle
	}

	now := s.now()
	if date == "" {
		date = now.In(s.loc).Format(models.DateLayout)
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		return 0, fmt.Errorf("%w: %q", common.ErrInvalidDate, date)
	}

	var id int64
	err := dbx.WithConn(ctx, s.db, func(ctx context.Context, conn *sql.Conn) error {
		if err := users.NewSQLiteRepository(conn).Register(ctx, models.Profile{ID: userID}, now); err != nil {
			return fmt.Errorf("error registering user: %w", err)
		}

		e := &models.Entry{UserID: userID, Title: title, Content: body, Date: date}
		var err error
		id, err = entries.NewSQLiteRepository(conn).Insert(ctx, e, now)
		if err != nil {
			return fmt.Errorf("saving error: %w", err)
		}
		return nil
	})
	return id, err
}

func (s *diaryService) UpdateEntry(ctx context.Context, userID, entryID int64, title, body *string) (bool, error) {
	if title != nil && strings.TrimSpace(*title) == "" {
		return false, common.ErrEmptyTitle
	}

	var ok bool
	err := dbx.WithConn(ctx, s.db, func(ctx context.Context, conn *sql.Conn) error {
		var err error
		ok, err = entries.NewSQLiteRepository(conn).Update(ctx, userID, entryID, title, body, s.now())
		if err != nil {
			return fmt.Errorf("error updating entry: %w", err)
		}
		return nil
	})
	return ok, err
}

func (s *diaryService) DeleteEntry(ctx context.Context, userID, entryID int64) (bool, error) {
	var ok bool
	err := dbx.WithConn(ctx, s.db, func(ctx context.Context, conn *sql.Conn) error {
		var err error
		ok, err = entries.NewSQLiteRepository(conn).Delete(ctx, userID, entryID)
		if err != nil {
			return fmt.Errorf("error deleting entry: %w", err)
		}
		return nil
	})
	return ok, err
}

func (s *diaryService) GetEntry(ctx context.Context, userID, entryID int64) (*models.Entry, bool, error) {
	var e *models.Entry
	err := dbx.WithConn(ctx, s.db, func(ctx context.Context, conn *sql.Conn) error {
		var err error
		e, err = entries.NewSQLiteRepository(conn).GetByID(ctx, userID, entryID)
		return err
	})
	if errors.Is(err, common.ErrorNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error retrieving entry: %w", err)
	}
	return e, true, nil
}

func (s *diaryService) ListEntries(ctx context.Context, userID int64, limit int) ([]models.Entry, error) {
	var list []models.Entry
	err := dbx.WithConn(ctx, s.db, func(ctx context.Context, conn *sql.Conn) error {
		var err error
		list, err = entries.NewSQLiteRepository(conn).ListByUser(ctx, userID, limit)
		if err != nil {
			return fmt.Errorf("error listing entries: %w", err)
		}
		return nil
	})
	return list, err
}

func (s *diaryService) SearchEntries(ctx context.Context, userID int64, query string) ([]models.Entry, error) {
	var list []models.Entry
	err := dbx.WithConn(ctx, s.db, func(ctx context.Context, conn *sql.Conn) error {
		var err error
		list, err = entries.NewSQLiteRepository(conn).Search(ctx, userID, query)
		if err != nil {
			return fmt.Errorf("error searching entries: %w", err)
		}
		return nil
	})
	return list, err
}

func (s *diaryService) GetStats(ctx context.Context, userID int64) (models.Stats, error) {
	var st models.Stats
	err := dbx.WithConn(ctx, s.db, func(ctx context.Context, conn *sql.Conn) error {
		var err error
		st, err = entries.NewSQLiteRepository(conn).Stats(ctx, userID)
		if err != nil {
			return fmt.Errorf("error computing stats: %w", err)
		}
		return nil
	})
	return st, err
}

func (s *diaryService) HasEntry(ctx context.Context, userID int64, title, body, date string) (bool, error) {
	var ok bool
	err := dbx.WithConn(ctx, s.db, func(ctx context.Context, conn *sql.Conn) error {
		var err error
		ok, err = entries.NewSQLiteRepository(conn).Exists(ctx, userID, title, body, date)
		return err
	})
	return ok, err
}

func (s *diaryService) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := dbx.WithConn(ctx, s.db, func(ctx context.Context, conn *sql.Conn) error {
		var err error
		n, err = users.NewSQLiteRepository(conn).Count(ctx)
		return err
	})
	return n, err
}
