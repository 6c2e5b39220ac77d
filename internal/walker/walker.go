// Package walker traverses canvas node trees.
package walker

import (
	"strings"

	"github.com/starford/framelens/internal/models"
)

// CollectTexts returns the characters of every text node under root in
// depth-first pre-order. The walk uses an explicit stack, so tree depth is
// bounded by memory rather than the goroutine stack.
func CollectTexts(root *models.Node) []string {
	texts := []string{}
	if root == nil {
		return texts
	}

	stack := []*models.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if n.IsText() {
			texts = append(texts, n.Characters)
		}
		// Push in reverse so the first child is visited next.
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return texts
}

// JoinedText returns all texts under root joined by newlines and trimmed.
func JoinedText(root *models.Node) string {
	return strings.TrimSpace(strings.Join(CollectTexts(root), "\n"))
}
