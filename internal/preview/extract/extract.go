package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Extractor finds image references in single document lines.
// An Extractor is not safe for concurrent use; the engine drives it from
// one goroutine.
type Extractor struct {
	md goldmark.Markdown
}

// NewExtractor creates an extractor backed by a plain goldmark parser.
func NewExtractor() *Extractor {
	return &Extractor{md: goldmark.New()}
}

// Reference returns the destination of the line's image markup, but only
// when the line contains exactly one image. Ambiguous lines (zero or
// several images) yield no reference.
func (e *Extractor) Reference(line string) (string, bool) {
	// Cheap pre-filter: the image marker must appear literally.
	if !strings.Contains(line, "![") {
		return "", false
	}

	src := []byte(line)
	root := e.md.Parser().Parse(text.NewReader(src))

	var refs []string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			refs = append(refs, string(img.Destination))
		}
		return ast.WalkContinue, nil
	})

	if len(refs) != 1 || refs[0] == "" {
		return "", false
	}
	return refs[0], true
}
