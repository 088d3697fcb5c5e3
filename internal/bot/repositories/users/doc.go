// Package users persists chat users in the local SQLite store.
//
// Registration is idempotent: the first call inserts the row, later calls
// only refresh last_active and any non-empty profile fields.
//
//	repo := users.NewSQLiteRepository(conn)
//	_ = repo.Register(ctx, profile, time.Now())
//	u, err := repo.GetByID(ctx, profile.ID)
package users
