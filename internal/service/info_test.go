package service

import (
	"errors"
	"testing"

	"github.com/inklog/internal/db"
)

func TestInfoCommitRequiresOwnerID(t *testing.T) {
	gdb := setupServiceTestDB(t)
	info := NewInfoStore(gdb, 0)
	info.Set("mood", "curious")

	if err := info.Commit(nil, 0); !errors.Is(err, ErrInfoOwnerUnknown) {
		t.Fatalf("expected ErrInfoOwnerUnknown, got %v", err)
	}
}

func TestInfoCommitAndReload(t *testing.T) {
	gdb := setupServiceTestDB(t)

	info := NewInfoStore(gdb, 0)
	info.Set("mood", "curious")
	info.Set("source", "import")
	if err := info.Commit(nil, 42); err != nil {
		t.Fatalf("commit: %v", err)
	}

	fresh := NewInfoStore(gdb, 42)
	if err := fresh.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !fresh.Has("mood") {
		t.Fatal("expected mood to be present after reload")
	}
	if value, _ := fresh.Get("source"); value != "import" {
		t.Fatalf("expected source=import, got %q", value)
	}
}

func TestInfoCommitOverwritesAndRemoves(t *testing.T) {
	gdb := setupServiceTestDB(t)

	info := NewInfoStore(gdb, 7)
	info.Set("mood", "curious")
	info.Set("source", "import")
	if err := info.Commit(nil, 7); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	info.Set("mood", "settled")
	info.Unset("source")
	if err := info.Commit(nil, 7); err != nil {
		t.Fatalf("second commit: %v", err)
	}

	var rows []db.PostInfo
	if err := gdb.Where("post_id = ?", 7).Find(&rows).Error; err != nil {
		t.Fatalf("load rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one surviving row, got %d", len(rows))
	}
	if rows[0].Name != "mood" || rows[0].Value != "settled" {
		t.Fatalf("unexpected surviving row %q=%q", rows[0].Name, rows[0].Value)
	}
}

func TestInfoCommitIsIdempotent(t *testing.T) {
	gdb := setupServiceTestDB(t)

	info := NewInfoStore(gdb, 9)
	info.Set("mood", "curious")
	if err := info.Commit(nil, 9); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if err := info.Commit(nil, 9); err != nil {
		t.Fatalf("repeat commit: %v", err)
	}

	var count int64
	if err := gdb.Model(&db.PostInfo{}).Where("post_id = ?", 9).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row after repeated commits, got %d", count)
	}
}
