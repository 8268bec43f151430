// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/example/studytrack/internal/database"
)

// Open connects database.DB to a fresh in-memory SQLite database and closes it when the test ends
func Open(t testing.TB) {
	t.Helper()
	if err := database.Connect("sqlite3", ":memory:"); err != nil {
		t.Fatalf("database.Connect(): %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("database.Close(): %v", err)
		}
	})
}

// CreateUser inserts a user with reminders enabled at hour
func CreateUser(t testing.TB, id int64, hour int) {
	t.Helper()
	repo := database.NewUserRepository()
	if err := repo.EnsureExists(context.Background(), id); err != nil {
		t.Fatalf("EnsureExists(%d): %v", id, err)
	}
	if err := repo.UpdateNotificationSettings(context.Background(), id, true, hour); err != nil {
		t.Fatalf("UpdateNotificationSettings(%d): %v", id, err)
	}
}
