package service

import (
	"errors"
	"testing"

	"github.com/inklog/internal/db"
)

func TestVocabularyLookupIsCaseInsensitive(t *testing.T) {
	gdb := setupServiceTestDB(t)
	vocab := NewVocabulary(gdb)

	lower, err := vocab.StatusCode("draft")
	if err != nil {
		t.Fatalf("lookup draft: %v", err)
	}
	upper, err := vocab.StatusCode("Draft")
	if err != nil {
		t.Fatalf("lookup Draft: %v", err)
	}
	if lower != upper {
		t.Fatalf("expected same code for draft/Draft, got %d and %d", lower, upper)
	}
	if lower == 0 {
		t.Fatal("expected a non-zero code for draft")
	}
}

func TestVocabularyUnknownNameIsNotFound(t *testing.T) {
	gdb := setupServiceTestDB(t)
	vocab := NewVocabulary(gdb)

	if _, err := vocab.StatusCode("nope"); !errors.Is(err, ErrStatusNotFound) {
		t.Fatalf("expected ErrStatusNotFound, got %v", err)
	}
	if _, err := vocab.TypeCode("nope"); !errors.Is(err, ErrTypeNotFound) {
		t.Fatalf("expected ErrTypeNotFound, got %v", err)
	}
}

func TestVocabularySyntheticAnyEntry(t *testing.T) {
	gdb := setupServiceTestDB(t)
	vocab := NewVocabulary(gdb)

	code, err := vocab.StatusCode("any")
	if err != nil {
		t.Fatalf("lookup any: %v", err)
	}
	if code != 0 {
		t.Fatalf("expected code 0 for any, got %d", code)
	}
	if vocab.HasStatusCode(0) {
		t.Fatal("code 0 must not validate as a storable status")
	}
}

func TestVocabularyCachesUntilRefresh(t *testing.T) {
	gdb := setupServiceTestDB(t)
	vocab := NewVocabulary(gdb)

	// prime the cache
	if _, err := vocab.StatusCode("draft"); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	if err := gdb.Create(&db.PostStatus{Name: "archived"}).Error; err != nil {
		t.Fatalf("add status row: %v", err)
	}

	if _, err := vocab.StatusCode("archived"); !errors.Is(err, ErrStatusNotFound) {
		t.Fatalf("expected cache miss before refresh, got %v", err)
	}

	if err := vocab.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	code, err := vocab.StatusCode("Archived")
	if err != nil {
		t.Fatalf("lookup archived after refresh: %v", err)
	}
	if code == 0 {
		t.Fatal("expected non-zero code for archived")
	}
}
