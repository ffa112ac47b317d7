package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/talas-dev/talas/internal/commenttree"
	"gopkg.in/yaml.v3"
)

// renderText печатает лес с отступом в два пробела на уровень.
func renderText(w io.Writer, roots []*commenttree.Node, maxDepth int) {
	commenttree.Walk(roots, maxDepth, func(n *commenttree.Node, depth int) bool {
		fmt.Fprintf(w, "%s- %s (%s)\n", strings.Repeat("  ", depth), commentLine(n), n.ID)
		return true
	})
}

func commentLine(n *commenttree.Node) string {
	switch {
	case n.Placeholder:
		return "[unavailable]"
	case n.IsDeleted:
		return "[deleted]"
	default:
		return authorName(n) + ": " + n.Content
	}
}

func authorName(n *commenttree.Node) string {
	switch {
	case n.Author.DisplayName != "":
		return n.Author.DisplayName
	case n.Author.Handle != "":
		return "@" + n.Author.Handle
	default:
		s := n.Author.ID.String()
		return s[:8]
	}
}

type yamlComment struct {
	ID        string        `yaml:"id"`
	Author    string        `yaml:"author,omitempty"`
	Content   string        `yaml:"content,omitempty"`
	Deleted   bool          `yaml:"deleted,omitempty"`
	Missing   bool          `yaml:"missing,omitempty"`
	CreatedAt time.Time     `yaml:"created_at,omitempty"`
	Replies   []yamlComment `yaml:"replies,omitempty"`
}

// renderYAML выводит лес как вложенный YAML-документ {comments: [...]}.
func renderYAML(w io.Writer, roots []*commenttree.Node, maxDepth int) error {
	if maxDepth <= 0 {
		maxDepth = commenttree.DefaultMaxDepth
	}

	doc := struct {
		Comments []yamlComment `yaml:"comments"`
	}{Comments: toYAML(roots, 0, maxDepth)}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return enc.Close()
}

func toYAML(nodes []*commenttree.Node, depth, maxDepth int) []yamlComment {
	if depth > maxDepth || len(nodes) == 0 {
		return nil
	}

	out := make([]yamlComment, 0, len(nodes))
	for _, n := range nodes {
		c := yamlComment{
			ID:      n.ID,
			Missing: n.Placeholder,
			Deleted: n.IsDeleted,
			Replies: toYAML(n.Children, depth+1, maxDepth),
		}

		if !n.Placeholder {
			c.Author = authorName(n)
			c.Content = n.Content
			c.CreatedAt = n.CreatedAt
		}

		out = append(out, c)
	}

	return out
}
