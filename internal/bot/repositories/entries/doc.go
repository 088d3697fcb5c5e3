// Package entries provides the local persistence layer for diary entries.
//
// # Overview
//
// The package defines a Repository interface for CRUD and query operations on
// Entry models (see internal/bot/models). SQLiteRepository persists data using
// a dbx.DBTX, normally a *sql.Conn checked out for a single operation.
//
// # Scoping
//
// Every statement is filtered by user_id. Update and Delete match the
// (id, user_id) pair, so one user can never touch another user's rows; a
// missing pair is reported as false, not as an error.
//
// # Ordering
//
// Listings return the newest logical date first, then the newest creation
// time, then the highest id.
//
// Typical usage
//
//	repo := entries.NewSQLiteRepository(conn)
//	id, _ := repo.Insert(ctx, &models.Entry{UserID: 1, Title: "t", Content: "c", Date: "2026-10-14"}, now)
//	list, _ := repo.ListByUser(ctx, 1, 10)
//	ok, _ := repo.Delete(ctx, 1, id)
package entries
