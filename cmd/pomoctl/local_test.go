package main

import (
	"context"
	"testing"

	"pomodoro/timer/internal/db"
	"pomodoro/timer/internal/repository"
)

func TestEnsureLocalUserIsIdempotent(t *testing.T) {
	database, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	if _, err := db.RunMigrations(ctx, database, db.MigrationSource(""), nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepository(database)
	for i := 0; i < 2; i++ {
		if err := ensureLocalUser(ctx, users); err != nil {
			t.Fatalf("ensure local user (pass %d): %v", i, err)
		}
	}

	user, err := users.GetByID(ctx, localUserID)
	if err != nil {
		t.Fatalf("get local user: %v", err)
	}
	if user.Email != "local@pomoctl" {
		t.Fatalf("unexpected email %q", user.Email)
	}
}

func TestFormatClock(t *testing.T) {
	cases := map[int]string{0: "00:00", 59: "00:59", 1500: "25:00", 3661: "61:01"}
	for seconds, want := range cases {
		if got := formatClock(seconds); got != want {
			t.Fatalf("formatClock(%d) = %q, want %q", seconds, got, want)
		}
	}
}
