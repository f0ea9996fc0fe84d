package models

import (
	"errors"
	"fmt"
	"strings"
)

// Dependency is a library listed in the document's Dependencies section
type Dependency struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Note is one changelog bullet, optionally with nested bullets
type Note struct {
	Text  string `yaml:"text"`
	Notes []Note `yaml:"notes,omitempty"`
}

// Release groups the changelog notes of one library version
type Release struct {
	Version string `yaml:"version"`
	Notes   []Note `yaml:"notes"`
}

// Manifest holds everything the report template needs apart from the tables
type Manifest struct {
	Title        string       `yaml:"title"`
	Summary      string       `yaml:"summary"`
	Version      string       `yaml:"version"`
	Dependencies []Dependency `yaml:"dependencies"`
	Changelog    []Release    `yaml:"changelog"`
	Targets      []Target     `yaml:"targets"`
}

// Validate checks that the manifest can drive a report
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return errors.New("manifest title is required")
	}
	if strings.TrimSpace(m.Version) == "" {
		return errors.New("manifest version is required")
	}
	for i, d := range m.Dependencies {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("dependencies[%d].name is required", i)
		}
	}
	for i, r := range m.Changelog {
		if strings.TrimSpace(r.Version) == "" {
			return fmt.Errorf("changelog[%d].version is required", i)
		}
	}
	return ValidateTargets(m.Targets)
}

// TargetNames returns the target names in declared order
func (m *Manifest) TargetNames() []string {
	names := make([]string, len(m.Targets))
	for i, t := range m.Targets {
		names[i] = t.Name
	}
	return names
}
