// Package canvas holds the host-supplied canvas document and exposes its
// selection to the session.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/framelens/internal/models"
)

// Source is the current canvas document. It is safe for concurrent use.
type Source struct {
	mu  sync.RWMutex
	doc *models.Document
}

// NewSource creates an empty source; its selection is empty until a
// document is set or loaded.
func NewSource() *Source {
	return &Source{}
}

// Set replaces the current document. Nodes without an id get a random one
// so every selection can be persisted.
func (s *Source) Set(doc *models.Document) {
	if doc != nil {
		AssignIDs(doc)
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
}

// Document returns the current document, or nil.
func (s *Source) Document() *models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Selection returns the selected nodes of the current document.
func (s *Source) Selection(_ context.Context) ([]*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil, nil
	}
	out := make([]*models.Node, len(s.doc.Selection))
	copy(out, s.doc.Selection)
	return out, nil
}

// LoadFile decodes the document at path and makes it current.
func (s *Source) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("canvas: open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return fmt.Errorf("canvas: %s: %w", path, err)
	}
	s.Set(doc)
	return nil
}

// Decode reads a canvas document from JSON.
func Decode(r io.Reader) (*models.Document, error) {
	var doc models.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("canvas: decode document: %w", err)
	}
	return &doc, nil
}

// AssignIDs gives every node without an id a random UUID.
func AssignIDs(doc *models.Document) {
	stack := append([]*models.Node{}, doc.Selection...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		stack = append(stack, n.Children...)
	}
}
