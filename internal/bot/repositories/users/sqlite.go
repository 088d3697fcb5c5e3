package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
	"github.com/dmitrijs2005/diarybot/internal/common"
	"github.com/dmitrijs2005/diarybot/internal/dbx"
	"github.com/dmitrijs2005/diarybot/internal/timex"
)

// SQLiteRepository implements Repository using a DBTX (*sql.DB, *sql.Conn or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Register(ctx context.Context, p models.Profile, now time.Time) error {
	ts := timex.FormatTimestamp(now)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, username, first_name, last_name, created_at, last_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO NOTHING`,
		p.ID, p.Username, p.FirstName, p.LastName, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE users SET
			last_active = ?,
			username = COALESCE(NULLIF(?, ''), username),
			first_name = COALESCE(NULLIF(?, ''), first_name),
			last_name = COALESCE(NULLIF(?, ''), last_name)
		WHERE telegram_id = ?`,
		ts, p.Username, p.FirstName, p.LastName, p.ID)
	if err != nil {
		return fmt.Errorf("failed to touch user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, telegramID int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT telegram_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
		       created_at, last_active
		FROM users WHERE telegram_id = ?`, telegramID)

	var (
		u                     models.User
		createdAt, lastActive string
	)
	err := row.Scan(&u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &createdAt, &lastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	u.CreatedAt = timex.ParseTimestamp(createdAt)
	u.LastActive = timex.ParseTimestamp(lastActive)
	return &u, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
