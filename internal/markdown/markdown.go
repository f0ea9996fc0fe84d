// Package markdown splits a README into heading-delimited sections so that a
// committed document can be compared against a fresh regeneration.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Section is a heading and everything up to the next heading.
// The section before the first heading has an empty Heading and Level 0.
type Section struct {
	Heading    string
	Level      int
	Body       []byte
	CodeBlocks []string
}

// Key identifies a section. Repeated headings are numbered from the second one.
func (s Section) Key(occurrence int) string {
	if occurrence == 0 {
		return s.Heading
	}
	return fmt.Sprintf("%s (%d)", s.Heading, occurrence+1)
}

// Title returns the heading as written, "(preamble)" for the leading section
func (s Section) Title() string {
	if s.Level == 0 {
		return "(preamble)"
	}
	return strings.Repeat("#", s.Level) + " " + s.Heading
}

// Document is a parsed README
type Document struct {
	Source   []byte
	Sections []Section
}

// Parser turns Markdown source into sections
type Parser struct {
	markdown goldmark.Markdown
}

// NewParser returns a Parser using goldmark's CommonMark parser
func NewParser() *Parser {
	return &Parser{markdown: goldmark.New()}
}

// Parse splits source at every top-level heading. The sections' bodies
// concatenate back to source.
func (p *Parser) Parse(source []byte) *Document {
	root := p.markdown.Parser().Parse(text.NewReader(source))

	doc := &Document{Source: source}
	current := Section{}
	start := 0

	flush := func(stop int) {
		current.Body = source[start:stop]
		if current.Level > 0 || len(current.Body) > 0 {
			doc.Sections = append(doc.Sections, current)
		}
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok {
			at, found := lineStart(heading, source)
			if !found {
				continue
			}
			flush(at)
			current = Section{Heading: extractText(heading, source), Level: heading.Level}
			start = at
			continue
		}
		current.CodeBlocks = append(current.CodeBlocks, codeBlocks(n, source)...)
	}
	flush(len(source))

	return doc
}

// lineStart returns the offset of the line holding the first line of n.
// Headings without text have no segment to anchor on.
func lineStart(n ast.Node, source []byte) (int, bool) {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return 0, false
	}
	at := lines.At(0).Start
	if nl := bytes.LastIndexByte(source[:at], '\n'); nl >= 0 {
		return nl + 1, true
	}
	return 0, true
}

// codeBlocks collects the contents of every fenced code block under n
func codeBlocks(n ast.Node, source []byte) []string {
	var blocks []string
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if block, ok := c.(*ast.FencedCodeBlock); ok {
			var buf bytes.Buffer
			lines := block.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				buf.Write(segment.Value(source))
			}
			blocks = append(blocks, buf.String())
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return blocks
}

// extractText extracts plain text from an AST node, descending into
// emphasis, links and code spans
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(extractText(c, source))
	}
	return strings.TrimSpace(buf.String())
}
