// Package formatter runs the external table formatter that turns a raw benchmark
// results file into an ASCII table.
//
// The formatter is opaque: its standard output is captured and relayed verbatim.
// It is launched directly with an explicit argument list; no shell is involved.
package formatter

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/benchdoc/internal/models"
)

// DefaultPath is the formatter shipped next to the benchmark results
const DefaultPath = "./generate_table.awk"

// Formatter produces the table for one target
type Formatter interface {
	Format(ctx context.Context, target models.Target) (models.FormattedTable, error)
}

// Func adapts an ordinary function to the Formatter interface
type Func func(ctx context.Context, target models.Target) (models.FormattedTable, error)

// Format calls f(ctx, target)
func (f Func) Format(ctx context.Context, target models.Target) (models.FormattedTable, error) {
	return f(ctx, target)
}

// Command runs an external executable once per target, feeding the target's
// input file on stdin and capturing stdout.
type Command struct {
	Path    string        // Executable to run
	Args    []string      // Extra arguments passed to every invocation
	Dir     string        // Working directory holding the input files ("" = current)
	Timeout time.Duration // Per-invocation timeout (0 = none)
}

// NewCommand creates a Command for the given executable
func NewCommand(path string, args ...string) *Command {
	if path == "" {
		path = DefaultPath
	}
	return &Command{
		Path: path,
		Args: args,
	}
}

// Format runs the formatter against the target's input file
func (c *Command) Format(ctx context.Context, target models.Target) (models.FormattedTable, error) {
	table := models.FormattedTable{Target: target}
	inputPath := c.resolve(target.Input())

	in, err := os.Open(inputPath)
	if err != nil {
		return table, &InputError{Target: target.Name, Path: inputPath, Err: err}
	}
	defer in.Close()

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	path := c.executable()
	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = in

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	table.Duration = time.Since(start)

	if err != nil {
		invErr := &InvocationError{
			Target:   target.Name,
			Path:     path,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			invErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			// Killed by timeout or cancellation; the signal exit status is meaningless
			invErr.ExitCode = -1
			invErr.Err = ctxErr
		}
		return table, invErr
	}

	table.Text = stdout.String()
	return table, nil
}

// resolve interprets a relative input path against the working directory
func (c *Command) resolve(name string) string {
	if c.Dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dir, name)
}

// executable resolves a relative formatter path (one containing a separator)
// against the working directory; bare names are left for PATH lookup.
func (c *Command) executable() string {
	if c.Dir == "" || filepath.IsAbs(c.Path) || !strings.ContainsRune(c.Path, filepath.Separator) {
		return c.Path
	}
	abs, err := filepath.Abs(filepath.Join(c.Dir, c.Path))
	if err != nil {
		return c.Path
	}
	return abs
}
