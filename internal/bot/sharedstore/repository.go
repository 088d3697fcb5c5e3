// Package sharedstore talks to the web application's database: its entries
// table, which it owns, and the user_links table the bot creates on demand.
package sharedstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
	"github.com/dmitrijs2005/diarybot/internal/dbx"
	"github.com/dmitrijs2005/diarybot/internal/timex"
)

// Repository is bound to a DBTX, so the same code runs on a pooled
// connection or inside a transaction.
type Repository struct {
	db      dbx.DBTX
	dialect Dialect
}

// NewRepository returns a Repository that spells queries for dialect d.
func NewRepository(db dbx.DBTX, d Dialect) *Repository {
	return &Repository{db: db, dialect: d}
}

func (r *Repository) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, r.dialect.Rebind(q), args...)
}

func (r *Repository) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return r.db.QueryRowContext(ctx, r.dialect.Rebind(q), args...)
}

// EnsureLinks creates user_links if it does not exist yet.
func (r *Repository) EnsureLinks(ctx context.Context) error {
	_, err := r.exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_links (
			telegram_id BIGINT PRIMARY KEY,
			web_user_id TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create user_links: %w", err)
	}
	return nil
}

// UpsertLink creates the link or refreshes an existing one.
func (r *Repository) UpsertLink(ctx context.Context, telegramID int64, now time.Time) error {
	_, err := r.exec(ctx, `
		INSERT INTO user_links (telegram_id, web_user_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET
			web_user_id = excluded.web_user_id,
			created_at = excluded.created_at`,
		telegramID, models.WebUserID(telegramID), timex.FormatTimestamp(now))
	if err != nil {
		return fmt.Errorf("failed to upsert link: %w", err)
	}
	return nil
}

// LinkIfAbsent creates the link unless one already exists.
func (r *Repository) LinkIfAbsent(ctx context.Context, telegramID int64, now time.Time) error {
	_, err := r.exec(ctx, `
		INSERT INTO user_links (telegram_id, web_user_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (telegram_id) DO NOTHING`,
		telegramID, models.WebUserID(telegramID), timex.FormatTimestamp(now))
	if err != nil {
		return fmt.Errorf("failed to insert link: %w", err)
	}
	return nil
}

// DeleteLink removes the link. A missing link is not an error.
func (r *Repository) DeleteLink(ctx context.Context, telegramID int64) error {
	if _, err := r.exec(ctx, `DELETE FROM user_links WHERE telegram_id = ?`, telegramID); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return nil
}

// HasLink reports whether the user has a link row.
func (r *Repository) HasLink(ctx context.Context, telegramID int64) (bool, error) {
	var n int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM user_links WHERE telegram_id = ?`, telegramID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check link: %w", err)
	}
	return n > 0, nil
}

// EntryExists matches on the exact (title, content, date) tuple.
func (r *Repository) EntryExists(ctx context.Context, title, content, date string) (bool, error) {
	var n int
	err := r.queryRow(ctx, `
		SELECT COUNT(*) FROM entries WHERE title = ? AND content = ? AND date = ?`,
		title, content, date).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check shared entry: %w", err)
	}
	return n > 0, nil
}

// InsertEntry appends one row to the shared entries table.
func (r *Repository) InsertEntry(ctx context.Context, e models.SharedEntry) error {
	_, err := r.exec(ctx, `
		INSERT INTO entries (title, content, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.Title, e.Content, e.Date, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert shared entry: %w", err)
	}
	return nil
}

// ListEntries returns every shared entry, newest date first. The table is
// not partitioned by account.
func (r *Repository) ListEntries(ctx context.Context) ([]models.SharedEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT title, content, date, created_at, updated_at FROM entries ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select shared entries: %w", err)
	}
	defer rows.Close()

	var result []models.SharedEntry
	for rows.Next() {
		var (
			e                            models.SharedEntry
			content, createdAt, updateAt sql.NullString
		)
		if err := rows.Scan(&e.Title, &content, &e.Date, &createdAt, &updateAt); err != nil {
			return nil, fmt.Errorf("failed to scan shared entry: %w", err)
		}
		e.Content = content.String
		e.Date = normalizeDate(e.Date)
		e.CreatedAt = createdAt.String
		e.UpdatedAt = updateAt.String
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountEntries returns the total number of shared entries.
func (r *Repository) CountEntries(ctx context.Context) (int, error) {
	var n int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count shared entries: %w", err)
	}
	return n, nil
}

// normalizeDate cuts DATE values that a driver rendered as a full RFC 3339
// timestamp back to a calendar day.
func normalizeDate(s string) string {
	if len(s) > len(models.DateLayout) {
		if _, err := time.Parse(models.DateLayout, s[:len(models.DateLayout)]); err == nil {
			return s[:len(models.DateLayout)]
		}
	}
	return s
}
