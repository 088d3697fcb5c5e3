package entries

import (
	"context"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
)

// Repository describes CRUD and query operations for entries of one store.
type Repository interface {
	// Insert stores e and returns the assigned id. Timestamps are set from now.
	Insert(ctx context.Context, e *models.Entry, now time.Time) (int64, error)

	// Update changes the non-nil fields of the (id, userID) entry.
	Update(ctx context.Context, userID, id int64, title, content *string, now time.Time) (bool, error)

	// Delete removes the (id, userID) entry.
	Delete(ctx context.Context, userID, id int64) (bool, error)

	// GetByID returns common.ErrorNotFound when the pair does not exist.
	GetByID(ctx context.Context, userID, id int64) (*models.Entry, error)

	// ListByUser returns at most limit entries, newest first.
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Entry, error)

	// Search returns entries whose title or content contains query (case-sensitive).
	Search(ctx context.Context, userID int64, query string) ([]models.Entry, error)

	// Stats returns the count and the earliest/latest dates.
	Stats(ctx context.Context, userID int64) (models.Stats, error)

	// Exists reports whether an identical (title, content, date) entry exists.
	Exists(ctx context.Context, userID int64, title, content, date string) (bool, error)
}
