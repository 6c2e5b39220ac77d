package store

import (
	"context"
	"log/slog"

	"github.com/starford/framelens/internal/storage"
)

// PruneImages deletes stored images that no analysis references any more,
// for example after a crash between writing the image and the row.
// It returns the number of files removed.
func PruneImages(ctx context.Context, repo Repository, files storage.Provider, logger *slog.Logger) (int, error) {
	entries, err := files.List("images")
	if err != nil {
		return 0, err
	}
	referenced, err := repo.ImagePaths(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if _, ok := referenced[e.Path]; ok {
			continue
		}
		if err := files.Delete(e.Path); err != nil {
			logger.Warn("prune: delete failed", slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("prune: removed orphan image", slog.String("path", e.Path))
		removed++
	}
	return removed, nil
}
