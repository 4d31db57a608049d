package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/pgcomposite/contrib/graphql"
)

func TestRunConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "types.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
enums:
  - name: content_status
    labels: [created, draft, published]
  - name: mood
    labels: [sad, happy]
`), 0o644))
	out := filepath.Join(dir, "pgtypes")
	gqlgen := filepath.Join(dir, "gqlgen.yml")

	err := run(context.Background(), options{
		config:     cfgPath,
		out:        out,
		gqlgen:     gqlgen,
		importPath: "example.com/app/pgtypes",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(out, "content_status.go"))
	assert.FileExists(t, filepath.Join(out, "mood.go"))

	cfg, err := graphql.LoadGQLGenConfig(gqlgen)
	require.NoError(t, err)
	assert.Equal(t, graphql.StringList{"example.com/app/pgtypes.ContentStatus"}, cfg.Models["ContentStatus"].Model)
	assert.Equal(t, graphql.StringList{"example.com/app/pgtypes.Mood"}, cfg.Models["Mood"].Model)
}

func TestRunFlags(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	assert.ErrorContains(t, run(ctx, options{out: t.TempDir()}, logger), "one of --config or --dsn")
	assert.ErrorContains(t, run(ctx, options{config: "a", dsn: "b", out: t.TempDir()}, logger), "mutually exclusive")
	assert.ErrorContains(t, run(ctx, options{config: "a", gqlgen: "g.yml", out: t.TempDir()}, logger), "--import-path")
}

func TestCommand(t *testing.T) {
	cmd := command()
	assert.Equal(t, "pgtypegen", cmd.Name)
	err := cmd.Run(context.Background(), []string{"pgtypegen", "--out", t.TempDir()})
	assert.ErrorContains(t, err, "one of --config or --dsn")
}
