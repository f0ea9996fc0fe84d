// Package report assembles the benchmark README: it runs the formatter once per
// target and substitutes the captured tables into the report template.
//
// Generation is all-or-nothing. The document is rendered into memory and only
// returned when every target succeeded, so callers never emit a partial README.
package report

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/benchdoc/internal/formatter"
	"github.com/harrison/benchdoc/internal/logger"
	"github.com/harrison/benchdoc/internal/models"
)

// Logger receives progress events from a generation run
type Logger interface {
	LogTargetStart(target models.Target, index, total int)
	LogTargetComplete(table models.FormattedTable, index, total int)
	LogTargetFailed(target models.Target, err error)
	LogSummary(result *models.GenerationResult)
}

// Generator produces the report document for a manifest
type Generator struct {
	manifest  *models.Manifest
	formatter formatter.Formatter
	template  *Template
	logger    Logger
	parallel  int
	now       func() time.Time
}

// Option configures a Generator
type Option func(*Generator)

// WithTemplate replaces the built-in README template
func WithTemplate(t *Template) Option {
	return func(g *Generator) {
		if t != nil {
			g.template = t
		}
	}
}

// WithLogger sets the progress logger
func WithLogger(l Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithParallelism runs up to n formatter invocations at once (n <= 1 = sequential)
func WithParallelism(n int) Option {
	return func(g *Generator) {
		g.parallel = n
	}
}

// NewGenerator validates the manifest against the template and returns a Generator.
// A template whose placeholders do not match the targets is rejected here.
func NewGenerator(m *models.Manifest, f formatter.Formatter, opts ...Option) (*Generator, error) {
	if m == nil {
		return nil, fmt.Errorf("manifest is required")
	}
	if f == nil {
		return nil, fmt.Errorf("formatter is required")
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	g := &Generator{
		manifest:  m,
		formatter: f,
		logger:    logger.NewNoOpLogger(),
		parallel:  1,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.template == nil {
		g.template = DefaultTemplate()
	}

	if err := g.template.Check(m); err != nil {
		return nil, err
	}
	return g, nil
}

// Generate runs the formatter for every target and renders the document.
// The first failure aborts the run and no document is returned.
func (g *Generator) Generate(ctx context.Context) (*models.GenerationResult, error) {
	start := g.now()

	tables, err := g.formatAll(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := g.template.Render(g.manifest, tables)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(doc)
	result := &models.GenerationResult{
		RunID:     uuid.New().String(),
		StartedAt: start,
		Duration:  g.now().Sub(start),
		Tables:    tables,
		Document:  doc,
		Digest:    hex.EncodeToString(sum[:]),
	}

	g.logger.LogSummary(result)
	return result, nil
}

func (g *Generator) formatOne(ctx context.Context, index int, target models.Target) (models.FormattedTable, error) {
	total := len(g.manifest.Targets)
	g.logger.LogTargetStart(target, index, total)

	table, err := g.formatter.Format(ctx, target)
	if err != nil {
		g.logger.LogTargetFailed(target, err)
		return models.FormattedTable{}, err
	}
	table.Target = target

	g.logger.LogTargetComplete(table, index, total)
	return table, nil
}

// formatAll returns the tables in declared target order
func (g *Generator) formatAll(ctx context.Context) ([]models.FormattedTable, error) {
	targets := g.manifest.Targets
	tables := make([]models.FormattedTable, len(targets))

	if g.parallel <= 1 {
		for i, target := range targets {
			table, err := g.formatOne(ctx, i, target)
			if err != nil {
				return nil, err
			}
			tables[i] = table
		}
		return tables, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	semaphore := make(chan struct{}, g.parallel)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

launch:
	for i, target := range targets {
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			break launch
		}

		wg.Add(1)
		go func(i int, target models.Target) {
			defer wg.Done()
			defer func() { <-semaphore }()

			table, err := g.formatOne(ctx, i, target)
			if err != nil {
				fail(err)
				return
			}
			tables[i] = table
		}(i, target)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}
