package markdown

import (
	"bytes"
	"fmt"
	"slices"
)

// ChangeKind classifies a section difference
type ChangeKind int

const (
	// Changed sections exist in both documents with different content
	Changed ChangeKind = iota
	// Missing sections are in the regenerated document only
	Missing
	// Unexpected sections are in the existing document only
	Unexpected
	// Reordered means every section matches but the order differs
	Reordered
)

func (k ChangeKind) String() string {
	switch k {
	case Changed:
		return "changed"
	case Missing:
		return "missing"
	case Unexpected:
		return "unexpected"
	case Reordered:
		return "reordered"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Difference is one section that does not match
type Difference struct {
	Section Section
	Kind    ChangeKind

	// Table is set for changed sections whose fenced code blocks differ
	Table bool
}

func (d Difference) String() string {
	if d.Kind == Reordered {
		return "sections reordered"
	}
	if d.Table {
		return fmt.Sprintf("%s: table %s", d.Section.Title(), d.Kind)
	}
	return fmt.Sprintf("%s: %s", d.Section.Title(), d.Kind)
}

type keyed struct {
	key     string
	section Section
}

func keyedSections(doc *Document) []keyed {
	seen := make(map[string]int)
	out := make([]keyed, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		n := seen[s.Heading]
		seen[s.Heading] = n + 1
		out = append(out, keyed{key: s.Key(n), section: s})
	}
	return out
}

// Compare reports how existing differs from want, section by section.
// Differences follow want's order, then sections only existing has.
// Identical documents yield nil.
func Compare(want, existing *Document) []Difference {
	if bytes.Equal(want.Source, existing.Source) {
		return nil
	}

	wantSections := keyedSections(want)
	haveSections := keyedSections(existing)

	have := make(map[string]Section, len(haveSections))
	for _, k := range haveSections {
		have[k.key] = k.section
	}

	var diffs []Difference
	matched := make(map[string]bool, len(wantSections))
	for _, k := range wantSections {
		got, ok := have[k.key]
		if !ok {
			diffs = append(diffs, Difference{Section: k.section, Kind: Missing})
			continue
		}
		matched[k.key] = true
		if bytes.Equal(got.Body, k.section.Body) {
			continue
		}
		diffs = append(diffs, Difference{
			Section: k.section,
			Kind:    Changed,
			Table:   !slices.Equal(got.CodeBlocks, k.section.CodeBlocks),
		})
	}
	for _, k := range haveSections {
		if !matched[k.key] {
			diffs = append(diffs, Difference{Section: k.section, Kind: Unexpected})
		}
	}

	if len(diffs) == 0 {
		// Same sections, different bytes: only the order can differ
		diffs = append(diffs, Difference{Kind: Reordered})
	}
	return diffs
}

// CompareBytes parses both documents and compares them
func (p *Parser) CompareBytes(want, existing []byte) []Difference {
	return Compare(p.Parse(want), p.Parse(existing))
}
