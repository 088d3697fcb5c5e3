package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/diarybot/internal/bot/models"
)

// Repository describes user registration and lookup.
type Repository interface {
	// Register inserts the user when absent and touches last_active.
	Register(ctx context.Context, p models.Profile, now time.Time) error

	// GetByID returns common.ErrorNotFound when the user is unknown.
	GetByID(ctx context.Context, telegramID int64) (*models.User, error)

	// Count returns the number of registered users.
	Count(ctx context.Context) (int, error)
}
