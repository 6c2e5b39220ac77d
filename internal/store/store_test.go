package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/framelens/internal/apperr"
	"github.com/starford/framelens/internal/models"
	"github.com/starford/framelens/internal/storage"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "framelens-test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sample(headline string) models.DesignMetadata {
	md := models.NewDesignMetadata()
	md.Headline = models.Text(headline)
	md.Keywords = []string{"k1"}
	return md
}

func TestSaveAndGetAnalysis(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	saved, err := db.SaveAnalysis(ctx, Analysis{SelectionID: "1:2", Name: "Hero", Source: SourceEnhanced, Metadata: sample("Hello")})
	if err != nil {
		t.Fatal(err)
	}
	if saved.Checksum == "" || saved.UpdatedAt.IsZero() {
		t.Errorf("saved = %+v", saved)
	}

	got, err := db.GetAnalysis(ctx, "1:2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Hero" || got.Source != SourceEnhanced || *got.Metadata.Headline != "Hello" {
		t.Errorf("got = %+v", got)
	}
	if got.Checksum != saved.Checksum {
		t.Errorf("checksum %q != %q", got.Checksum, saved.Checksum)
	}
	if !got.UpdatedAt.Equal(saved.UpdatedAt) {
		t.Errorf("updated_at %v != %v", got.UpdatedAt, saved.UpdatedAt)
	}
	if got.Metadata.Objects == nil {
		t.Error("objects should decode as empty slice")
	}
}

func TestSaveAnalysis_Upsert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first, _ := db.SaveAnalysis(ctx, Analysis{SelectionID: "n", Metadata: sample("v1")})
	second, _ := db.SaveAnalysis(ctx, Analysis{SelectionID: "n", Metadata: sample("v2")})
	if first.Checksum == second.Checksum {
		t.Error("checksum should change with content")
	}
	got, _ := db.GetAnalysis(ctx, "n")
	if *got.Metadata.Headline != "v2" || got.Source != SourceBaseline {
		t.Errorf("got = %+v", got)
	}
	_, total, _ := db.ListAnalyses(ctx, 10, 0)
	if total != 1 {
		t.Errorf("total = %d", total)
	}
}

func TestSaveAnalysis_RequiresID(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.SaveAnalysis(context.Background(), Analysis{Metadata: sample("x")}); err == nil {
		t.Error("expected error for empty selection id")
	}
}

func TestGetAnalysis_NotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetAnalysis(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
	if err := db.DeleteAnalysis(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("delete err = %v", err)
	}
}

func TestListAnalyses_Paging(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		_, _ = db.SaveAnalysis(ctx, Analysis{SelectionID: id, Metadata: sample(id), UpdatedAt: base.Add(time.Duration(i) * time.Hour)})
	}

	page, total, err := db.ListAnalyses(ctx, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(page) != 2 || page[0].SelectionID != "c" || page[1].SelectionID != "b" {
		t.Errorf("page = %+v total = %d", page, total)
	}
	page, _, _ = db.ListAnalyses(ctx, 2, 2)
	if len(page) != 1 || page[0].SelectionID != "a" {
		t.Errorf("second page = %+v", page)
	}
}

func TestDeleteAnalysis(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	_, _ = db.SaveAnalysis(ctx, Analysis{SelectionID: "d", Metadata: sample("x")})
	if err := db.DeleteAnalysis(ctx, "d"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetAnalysis(ctx, "d"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestCredentialSlot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	slot := db.Credentials(DefaultCredentialSlot)

	v, err := slot.Load(ctx)
	if err != nil || v != "" {
		t.Fatalf("empty slot = %q, %v", v, err)
	}
	if err := slot.Save(ctx, "sk-1"); err != nil {
		t.Fatal(err)
	}
	if err := slot.Save(ctx, "sk-2"); err != nil {
		t.Fatal(err)
	}
	if v, _ := slot.Load(ctx); v != "sk-2" {
		t.Errorf("slot = %q", v)
	}
	if v, _ := db.Credentials("other").Load(ctx); v != "" {
		t.Errorf("other slot = %q", v)
	}
}

func TestPruneImages(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	files, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	kept := storage.ImagePath("keep")
	_ = files.Write(kept, []byte("k"))
	_ = files.Write(storage.ImagePath("orphan"), []byte("o"))
	_, _ = db.SaveAnalysis(ctx, Analysis{SelectionID: "keep", Metadata: sample("x"), ImagePath: kept})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n, err := PruneImages(ctx, db, files, logger)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("removed = %d, want 1", n)
	}
	if _, err := files.Read(kept); err != nil {
		t.Errorf("kept image removed: %v", err)
	}
	if _, err := files.Read(storage.ImagePath("orphan")); err == nil {
		t.Error("orphan image should be gone")
	}
}
