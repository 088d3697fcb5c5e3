package entries

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

const selectColumns = `id, user_id, title, content, date, created_at, updated_at`

const orderNewestFirst = `ORDER BY date DESC, created_at DESC, id DESC`

// SQLiteRepository implements Repository using a DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.Entry, now time.Time) (int64, error) {
	ts := timex.FormatTimestamp(now)

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_entries (user_id, title, content, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Title, e.Content, e.Date, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}

	e.ID = id
	e.CreatedAt = timex.ParseTimestamp(ts)
	e.UpdatedAt = e.CreatedAt
	return id, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, userID, id int64, title, content *string, now time.Time) (bool, error) {
	if title == nil && content == nil {
		return false, nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE user_entries SET
			title = COALESCE(?, title),
			content = COALESCE(?, content),
			updated_at = ?
		WHERE id = ? AND user_id = ?`,
		nullable(title), nullable(content), timex.FormatTimestamp(now), id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to update entry: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete entry: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, userID, id int64) (*models.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM user_entries WHERE id = ? AND user_id = ?`, id, userID)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM user_entries WHERE user_id = ? `+orderNewestFirst+` LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	return collect(rows)
}

func (r *SQLiteRepository) Search(ctx context.Context, userID int64, query string) ([]models.Entry, error) {
	// instr is case-sensitive, LIKE is not for ASCII.
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM user_entries
		 WHERE user_id = ? AND (instr(title, ?) > 0 OR instr(content, ?) > 0) `+orderNewestFirst,
		userID, query, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search entries: %w", err)
	}
	return collect(rows)
}

func (r *SQLiteRepository) Stats(ctx context.Context, userID int64) (models.Stats, error) {
	var (
		s           models.Stats
		first, last sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(date), MAX(date) FROM user_entries WHERE user_id = ?`, userID).
		Scan(&s.Total, &first, &last)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	s.First = first.String
	s.Last = last.String
	return s, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, userID int64, title, content, date string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM user_entries
		WHERE user_id = ? AND title = ? AND content = ? AND date = ? LIMIT 1`,
		userID, title, content, date).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check entry: %w", err)
	}
	return true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	var (
		e                    models.Entry
		createdAt, updatedAt string
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Title, &e.Content, &e.Date, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	e.CreatedAt = timex.ParseTimestamp(createdAt)
	e.UpdatedAt = timex.ParseTimestamp(updatedAt)
	return &e, nil
}

func collect(rows *sql.Rows) ([]models.Entry, error) {
	defer rows.Close()

	var result []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
