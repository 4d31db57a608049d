package gen

import (
	"bytes"
	"context"
	"fmt"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// EnumSpec describes one enum type to generate.
type EnumSpec struct {
	// Name is the database type name.
	Name string
	// Labels are the enum labels in declaration order.
	Labels []string
	// GoName overrides the Go type name derived from Name.
	GoName string
}

// EnumGenerator writes one Go file per enum into a single package directory.
type EnumGenerator struct {
	outDir  string
	pkg     string
	header  string
	workers int
	logger  *slog.Logger

	mu      sync.Mutex
	metrics *Metrics
}

// Metrics tracks generation output.
type Metrics struct {
	FilesGenerated int
	TotalBytes     int64
	FormatTime     time.Duration
}

// Option configures an EnumGenerator.
type Option func(*EnumGenerator) error

// WithPackage sets the package name of the generated files.
// Defaults to the base name of the output directory.
func WithPackage(name string) Option {
	return func(g *EnumGenerator) error {
		if !token.IsIdentifier(name) {
			return NewConfigError("Package", name, "package name must be a Go identifier")
		}
		g.pkg = name
		return nil
	}
}

// WithHeader sets the comment placed at the top of each generated file.
func WithHeader(header string) Option {
	return func(g *EnumGenerator) error {
		g.header = header
		return nil
	}
}

// WithWorkers sets the number of files rendered in parallel.
func WithWorkers(n int) Option {
	return func(g *EnumGenerator) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "must be positive")
		}
		g.workers = n
		return nil
	}
}

// WithLogger sets the logger used to report generated files.
func WithLogger(l *slog.Logger) Option {
	return func(g *EnumGenerator) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		g.logger = l
		return nil
	}
}

// NewEnumGenerator returns a generator writing to outDir.
func NewEnumGenerator(outDir string, opts ...Option) (*EnumGenerator, error) {
	if outDir == "" {
		return nil, NewConfigError("Target", nil, "missing target directory")
	}
	g := &EnumGenerator{
		outDir:  outDir,
		header:  "Code generated by pgtypegen, DO NOT EDIT.",
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.Default(),
		metrics: &Metrics{},
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	if g.pkg == "" {
		base := filepath.Base(filepath.Clean(outDir))
		if !token.IsIdentifier(base) {
			return nil, NewConfigError("Package", base, "cannot derive package name from target directory; use WithPackage")
		}
		g.pkg = base
	}
	return g, nil
}

// Package returns the generated package name.
func (g *EnumGenerator) Package() string { return g.pkg }

// Metrics returns the generation metrics.
func (g *EnumGenerator) Metrics() Metrics {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *g.metrics
}

type enumTask struct {
	spec   EnumSpec
	goName string
	labels []string
	file   string
}

// Generate validates specs and writes their files in parallel.
func (g *EnumGenerator) Generate(ctx context.Context, specs []EnumSpec) error {
	tasks, err := g.plan(specs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return NewGenerationError("write", g.outDir, "create output directory", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for _, t := range tasks {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return g.generateFile(ctx, t)
			}
		})
	}
	return eg.Wait()
}

func (g *EnumGenerator) plan(specs []EnumSpec) ([]enumTask, error) {
	tasks := make([]enumTask, 0, len(specs))
	// idents maps every package-level identifier to the enum declaring it.
	idents := make(map[string]string)
	files := make(map[string]string, len(specs))
	for _, s := range specs {
		if s.Name == "" {
			return nil, NewSpecError("", "missing name")
		}
		if len(s.Labels) == 0 {
			return nil, NewSpecError(s.Name, "no labels")
		}
		seen := make(map[string]struct{}, len(s.Labels))
		for _, l := range s.Labels {
			if _, ok := seen[l]; ok {
				return nil, NewSpecError(s.Name, fmt.Sprintf("duplicate label %q", l))
			}
			seen[l] = struct{}{}
		}
		name, err := typeName(s)
		if err != nil {
			return nil, err
		}
		if prev, ok := idents[name]; ok {
			return nil, NewSpecError(s.Name, fmt.Sprintf("Go name %s already used by %q", name, prev))
		}
		file := fileName(s.Name)
		if prev, ok := files[file]; ok {
			return nil, NewSpecError(s.Name, fmt.Sprintf("file %s already used by %q", file, prev))
		}
		files[file] = s.Name
		t := enumTask{spec: s, goName: name, labels: labelNames(s.Labels), file: file}
		for _, id := range t.identifiers() {
			if prev, ok := idents[id]; ok {
				return nil, NewSpecError(s.Name, fmt.Sprintf("identifier %s clashes with a declaration of %q", id, prev))
			}
			idents[id] = s.Name
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// identifiers returns the package-level names declared by the task's file.
func (t enumTask) identifiers() []string {
	ids := make([]string, 0, len(t.labels)+3)
	ids = append(ids, t.goName, t.goName+"Type", t.goName+"Values")
	for _, l := range t.labels {
		ids = append(ids, t.goName+l)
	}
	return ids
}

// generateFile renders, formats and writes a single enum file.
func (g *EnumGenerator) generateFile(ctx context.Context, t enumTask) error {
	f := g.render(t)
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return NewGenerationError("render", t.file, "", err)
	}
	fullPath := filepath.Join(g.outDir, t.file)
	start := time.Now()
	formatted, err := imports.Process(fullPath, buf.Bytes(), nil)
	if err != nil {
		// Keep the unformatted output around for debugging.
		debugPath := fullPath + ".error"
		_ = os.WriteFile(debugPath, buf.Bytes(), 0o644)
		return NewGenerationError("format", t.file, "unformatted output written to "+debugPath, err)
	}
	elapsed := time.Since(start)
	if err := os.WriteFile(fullPath, formatted, 0o644); err != nil {
		return NewGenerationError("write", t.file, "", err)
	}
	g.mu.Lock()
	g.metrics.FilesGenerated++
	g.metrics.TotalBytes += int64(len(formatted))
	g.metrics.FormatTime += elapsed
	g.mu.Unlock()
	g.logger.DebugContext(ctx, "generated enum", "enum", t.spec.Name, "type", t.goName, "file", fullPath)
	return nil
}
