package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
	"github.com/dmitrijs2005/diarybot/internal/bot/sharedstore"
	"github.com/dmitrijs2005/diarybot/internal/dbx"
	"github.com/dmitrijs2005/diarybot/internal/logging"
)

// PushLimit bounds how many of the newest local entries one push considers.
const PushLimit = 100

// SyncService reconciles a user's local entries with the shared store.
//
// Contract:
//   - EnableSync/DisableSync: create or remove the user's link; both idempotent.
//   - SyncUserToShared: push the newest PushLimit entries, skipping exact
//     (title, content, date) matches. Creates the link if missing.
//   - SyncSharedToUser: pull every shared entry into the local store. Requires
//     a link. Without StrictDedup every call re-inserts everything.
//   - GetSyncStatus: local count, total shared count and link flag.
//
// Failures are logged and reported as false, 0 or a zero SyncStatus.
type SyncService interface {
	EnableSync(ctx context.Context, userID int64) bool
	DisableSync(ctx context.Context, userID int64) bool
	SyncUserToShared(ctx context.Context, userID int64) int
	SyncSharedToUser(ctx context.Context, userID int64) int
	GetSyncStatus(ctx context.Context, userID int64) models.SyncStatus
}

// SyncOptions configures a SyncService.
type SyncOptions struct {
	// Driver is the shared store's database/sql driver name.
	Driver string
	// StrictDedup makes pulls skip entries the user already has.
	StrictDedup bool
}

type syncService struct {
	diary   DiaryService
	shared  *sql.DB
	dialect sharedstore.Dialect
	strict  bool
	log     logging.Logger
	now     func() time.Time
}

// NewSyncService binds the diary to a shared store connection pool.
func NewSyncService(diary DiaryService, shared *sql.DB, opts SyncOptions, log logging.Logger) SyncService {
	return &syncService{
		diary:   diary,
		shared:  shared,
		dialect: sharedstore.DialectFor(opts.Driver),
		strict:  opts.StrictDedup,
		log:     log.With("component", "sync"),
		now:     time.Now,
	}
}

func (s *syncService) withShared(ctx context.Context, fn func(ctx context.Context, r *sharedstore.Repository) error) error {
	return dbx.WithConn(ctx, s.shared, func(ctx context.Context, conn *sql.Conn) error {
		r := sharedstore.NewRepository(conn, s.dialect)
		if err := r.EnsureLinks(ctx); err != nil {
			return err
		}
		return fn(ctx, r)
	})
}

func (s *syncService) EnableSync(ctx context.Context, userID int64) bool {
	err := s.withShared(ctx, func(ctx context.Context, r *sharedstore.Repository) error {
		return r.UpsertLink(ctx, userID, s.now())
	})
	if err != nil {
		s.log.Error(ctx, "enable sync failed", "user_id", userID, "error", err)
		return false
	}
	s.log.Info(ctx, "sync enabled", "user_id", userID)
	return true
}

func (s *syncService) DisableSync(ctx context.Context, userID int64) bool {
	err := s.withShared(ctx, func(ctx context.Context, r *sharedstore.Repository) error {
		return r.DeleteLink(ctx, userID)
	})
	if err != nil {
		s.log.Error(ctx, "disable sync failed", "user_id", userID, "error", err)
		return false
	}
	s.log.Info(ctx, "sync disabled", "user_id", userID)
	return true
}

func (s *syncService) SyncUserToShared(ctx context.Context, userID int64) int {
	local, err := s.diary.ListEntries(ctx, userID, PushLimit)
	if err != nil {
		s.log.Error(ctx, "push: reading local entries failed", "user_id", userID, "error", err)
		return 0
	}

	var inserted int
	err = dbx.WithConn(ctx, s.shared, func(ctx context.Context, conn *sql.Conn) error {
		return dbx.WithTx(ctx, conn, nil, func(ctx context.Context, tx dbx.DBTX) error {
			inserted = 0
			r := sharedstore.NewRepository(tx, s.dialect)
			if err := r.EnsureLinks(ctx); err != nil {
				return err
			}
			if err := r.LinkIfAbsent(ctx, userID, s.now()); err != nil {
				return err
			}

			for _, e := range local {
				exists, err := r.EntryExists(ctx, e.Title, e.Content, e.Date)
				if err != nil {
					return err
				}
				if exists {
					continue
				}
				err = r.InsertEntry(ctx, models.SharedEntry{
					Title:     e.Title,
					Content:   e.Content,
					Date:      e.Date,
					CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
					UpdatedAt: e.UpdatedAt.UTC().Format(time.RFC3339),
				})
				if err != nil {
					return err
				}
				inserted++
			}
			return nil
		})
	})
	if err != nil {
		s.log.Error(ctx, "push to shared store failed", "user_id", userID, "error", err)
		return 0
	}

	s.log.Info(ctx, "pushed entries", "user_id", userID, "considered", len(local), "inserted", inserted)
	return inserted
}

func (s *syncService) SyncSharedToUser(ctx context.Context, userID int64) int {
	var (
		linked bool
		shared []models.SharedEntry
	)
	err := s.withShared(ctx, func(ctx context.Context, r *sharedstore.Repository) error {
		var err error
		linked, err = r.HasLink(ctx, userID)
		if err != nil || !linked {
			return err
		}
		shared, err = r.ListEntries(ctx)
		return err
	})
	if err != nil {
		s.log.Error(ctx, "pull from shared store failed", "user_id", userID, "error", err)
		return 0
	}
	if !linked {
		s.log.Debug(ctx, "pull skipped, user not linked", "user_id", userID)
		return 0
	}

	var added int
	for _, e := range shared {
		if s.strict {
			has, err := s.diary.HasEntry(ctx, userID, e.Title, e.Content, e.Date)
			if err != nil {
				s.log.Warn(ctx, "pull: dedup check failed", "user_id", userID, "error", err)
				continue
			}
			if has {
				continue
			}
		}
		if _, err := s.diary.AddEntry(ctx, userID, e.Title, e.Content, e.Date); err != nil {
			s.log.Warn(ctx, "pull: entry not added", "user_id", userID, "title", e.Title, "error", err)
			continue
		}
		added++
	}

	s.log.Info(ctx, "pulled entries", "user_id", userID, "shared", len(shared), "added", added)
	return added
}

func (s *syncService) GetSyncStatus(ctx context.Context, userID int64) models.SyncStatus {
	stats, err := s.diary.GetStats(ctx, userID)
	if err != nil {
		s.log.Error(ctx, "sync status: local stats failed", "user_id", userID, "error", err)
		return models.SyncStatus{}
	}

	st := models.SyncStatus{LocalEntries: stats.Total}
	err = s.withShared(ctx, func(ctx context.Context, r *sharedstore.Repository) error {
		var err error
		if st.SharedEntries, err = r.CountEntries(ctx); err != nil {
			return err
		}
		st.Linked, err = r.HasLink(ctx, userID)
		return err
	})
	if err != nil {
		s.log.Error(ctx, "sync status: shared store failed", "user_id", userID, "error", err)
		return models.SyncStatus{}
	}

	st.CheckedAt = s.now()
	return st
}
