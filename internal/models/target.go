package models

import (
	"errors"
	"fmt"
	"strings"
)

// Target describes one benchmarked board and the section it gets in the report
type Target struct {
	Name         string   `yaml:"name"`          // Logical identifier, e.g. "nano"
	Title        string   `yaml:"title"`         // Section heading, e.g. "Arduino Nano"
	HeadingLevel int      `yaml:"heading_level"` // Markdown heading level (2 or 3)
	Details      []string `yaml:"details"`       // Hardware/toolchain bullets shown above the table
	InputFile    string   `yaml:"input_file"`    // Raw results file; defaults to <Name>.txt
}

// Input returns the raw results file for the target.
func (t Target) Input() string {
	if t.InputFile != "" {
		return t.InputFile
	}
	return t.Name + ".txt"
}

// Heading returns the Markdown heading prefix for the target section
func (t Target) Heading() string {
	level := t.HeadingLevel
	if level == 0 {
		level = 3
	}
	return strings.Repeat("#", level)
}

// Validate checks that the target has the fields needed to render a section
func (t *Target) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("target name is required")
	}
	if strings.ContainsAny(t.Name, `/\ `) {
		return fmt.Errorf("target name %q must not contain path separators or spaces", t.Name)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("target %s: title is required", t.Name)
	}
	if t.HeadingLevel != 0 && (t.HeadingLevel < 2 || t.HeadingLevel > 4) {
		return fmt.Errorf("target %s: heading_level must be between 2 and 4, got %d", t.Name, t.HeadingLevel)
	}
	return nil
}

// ValidateTargets checks every target and rejects duplicate names,
// since each name maps to exactly one table placeholder.
func ValidateTargets(targets []Target) error {
	if len(targets) == 0 {
		return errors.New("at least one target is required")
	}
	seen := make(map[string]bool, len(targets))
	for i := range targets {
		if err := targets[i].Validate(); err != nil {
			return err
		}
		if seen[targets[i].Name] {
			return fmt.Errorf("duplicate target %q", targets[i].Name)
		}
		seen[targets[i].Name] = true
	}
	return nil
}
