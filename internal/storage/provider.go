// Package storage defines the rendered-image file store.
package storage

import "time"

// Entry describes one stored image.
type Entry struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for image file operations. Paths are relative
// to the store root.
type Provider interface {
	// List returns every .png file under dir.
	List(dir string) ([]Entry, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}

// ImagePath returns the store-relative path for a selection's image.
func ImagePath(selectionID string) string {
	return "images/" + SafeName(selectionID) + ".png"
}
