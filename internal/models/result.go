package models

import "time"

// FormattedTable is the formatter's verbatim output for one target
type FormattedTable struct {
	Target   Target        // Target the table belongs to
	Text     string        // Captured standard output, unmodified
	Duration time.Duration // Time spent in the formatter
}

// GenerationResult is the outcome of one successful generation run
type GenerationResult struct {
	RunID     string           // Unique run identifier
	StartedAt time.Time        // When generation started
	Duration  time.Duration    // Total time including rendering
	Tables    []FormattedTable // Tables in declared target order
	Document  []byte           // Fully rendered report
	Digest    string           // Hex SHA-256 of Document
}

// TableFor returns the table captured for the named target
func (r *GenerationResult) TableFor(name string) (FormattedTable, bool) {
	for _, t := range r.Tables {
		if t.Target.Name == name {
			return t, true
		}
	}
	return FormattedTable{}, false
}
