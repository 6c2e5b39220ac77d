package models

import (
	"bytes"
	"encoding/json"
)

// NodeType is the host's node kind.
type NodeType string

// Node kinds the core understands. Anything else is treated as an opaque
// shape: no text, children walked if present.
const (
	NodeFrame     NodeType = "FRAME"
	NodeGroup     NodeType = "GROUP"
	NodeText      NodeType = "TEXT"
	NodeRectangle NodeType = "RECTANGLE"
)

// PaintSolid is the only paint type used for color classification.
const PaintSolid = "SOLID"

// Node is one element of the host's canvas tree.
type Node struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	Type       NodeType `json:"type"`
	Characters string   `json:"characters,omitempty"`
	X          float64  `json:"x,omitempty"`
	Y          float64  `json:"y,omitempty"`
	Width      *float64 `json:"width,omitempty"`
	Height     *float64 `json:"height,omitempty"`
	Fills      *Fills   `json:"fills,omitempty"`
	Children   []*Node  `json:"children,omitempty"`
}

// IsText reports whether n is a text leaf.
func (n *Node) IsText() bool {
	return n != nil && n.Type == NodeText
}

// IsAnalyzable reports whether n can be the root of an analysis.
func (n *Node) IsAnalyzable() bool {
	return n != nil && (n.Type == NodeFrame || n.Type == NodeGroup)
}

// Size returns the node dimensions and whether both are present.
func (n *Node) Size() (float64, float64, bool) {
	if n == nil || n.Width == nil || n.Height == nil {
		return 0, 0, false
	}
	return *n.Width, *n.Height, true
}

// RGB is a color with channels normalized to 0..1.
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Paint is one fill descriptor.
type Paint struct {
	Type    string   `json:"type"`
	Color   *RGB     `json:"color,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`
	Visible *bool    `json:"visible,omitempty"`
}

// IsSolid reports whether p is a solid color paint with a color.
func (p Paint) IsSolid() bool {
	return p.Type == PaintSolid && p.Color != nil
}

// Fills is a node's fill list. The host may send something other than a
// list (its "mixed" marker); that decodes with Mixed set and no paints.
type Fills struct {
	Paints []Paint
	Mixed  bool
}

// UnmarshalJSON accepts an array of paints or any other value as mixed.
func (f *Fills) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		*f = Fills{Mixed: true}
		return nil
	}
	var paints []Paint
	if err := json.Unmarshal(trimmed, &paints); err != nil {
		return err
	}
	*f = Fills{Paints: paints}
	return nil
}

// MarshalJSON writes mixed fills as the string "mixed".
func (f Fills) MarshalJSON() ([]byte, error) {
	if f.Mixed {
		return []byte(`"mixed"`), nil
	}
	if f.Paints == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f.Paints)
}

// Document is an exported canvas page with the host's current selection.
type Document struct {
	Name      string  `json:"name,omitempty"`
	Selection []*Node `json:"selection"`
}
