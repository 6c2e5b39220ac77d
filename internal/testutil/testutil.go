// Package testutil provides shared test helpers for setting up databases and
// image stores.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/framelens/internal/models"
	"github.com/starford/framelens/internal/storage"
	"github.com/starford/framelens/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "framelens-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestImages creates a temporary image directory with a storage.FS.
func TestImages(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// Frame returns an analyzable frame with a background fill and two texts.
func Frame(id string) *models.Node {
	w, h := 1200.0, 628.0
	return &models.Node{
		ID:     id,
		Name:   "Promo " + id,
		Type:   models.NodeFrame,
		Width:  &w,
		Height: &h,
		Fills: &models.Fills{Paints: []models.Paint{
			{Type: models.PaintSolid, Color: &models.RGB{R: 1, G: 1, B: 1}},
		}},
		Children: []*models.Node{
			{ID: id + "-t1", Type: models.NodeText, Characters: "Spring Collection"},
			{ID: id + "-t2", Type: models.NodeText, Characters: "Shop now"},
		},
	}
}
