// pgtypegen generates Go enum types from a PostgreSQL database or a static
// YAML definition file.
//
//	pgtypegen --dsn postgres://localhost/app --schema public --out internal/pgtypes
//	pgtypegen --config types.yml --out internal/pgtypes --gqlgen gqlgen.yml --import-path example.com/app/internal/pgtypes
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/urfave/cli/v3"

	"github.com/syssam/pgcomposite/compiler/gen"
	"github.com/syssam/pgcomposite/config"
	"github.com/syssam/pgcomposite/contrib/graphql"
	"github.com/syssam/pgcomposite/dialect"
	"github.com/syssam/pgcomposite/dialect/sql"
	"github.com/syssam/pgcomposite/dialect/sql/schema"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := command().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	config     string
	dsn        string
	schema     string
	out        string
	pkg        string
	gqlgen     string
	importPath string
	workers    int
}

func command() *cli.Command {
	return &cli.Command{
		Name:  "pgtypegen",
		Usage: "generate Go enum types from PostgreSQL",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML file with static type definitions"},
			&cli.StringFlag{Name: "dsn", Usage: "PostgreSQL connection string", Sources: cli.EnvVars("PGTYPEGEN_DSN")},
			&cli.StringFlag{Name: "schema", Usage: "schema to inspect (search_path)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output directory", Required: true},
			&cli.StringFlag{Name: "package", Aliases: []string{"p"}, Usage: "package name, defaults to the output directory name"},
			&cli.StringFlag{Name: "gqlgen", Usage: "gqlgen.yml to bind the generated enums in"},
			&cli.StringFlag{Name: "import-path", Usage: "import path of the output package, required with --gqlgen"},
			&cli.IntFlag{Name: "workers", Usage: "files generated in parallel", Value: 0},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log every generated file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := slog.LevelInfo
			if cmd.Bool("verbose") {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return run(ctx, options{
				config:     cmd.String("config"),
				dsn:        cmd.String("dsn"),
				schema:     cmd.String("schema"),
				out:        cmd.String("out"),
				pkg:        cmd.String("package"),
				gqlgen:     cmd.String("gqlgen"),
				importPath: cmd.String("import-path"),
				workers:    int(cmd.Int("workers")),
			}, logger)
		},
	}
}

func run(ctx context.Context, o options, logger *slog.Logger) error {
	switch {
	case o.config == "" && o.dsn == "":
		return errors.New("pgtypegen: one of --config or --dsn is required")
	case o.config != "" && o.dsn != "":
		return errors.New("pgtypegen: --config and --dsn are mutually exclusive")
	case o.gqlgen != "" && o.importPath == "":
		return errors.New("pgtypegen: --gqlgen requires --import-path")
	}
	var (
		specs []gen.EnumSpec
		err   error
	)
	if o.config != "" {
		specs, err = specsFromConfig(o.config)
	} else {
		specs, err = specsFromDatabase(ctx, o, logger)
	}
	if err != nil {
		return err
	}
	opts := []gen.Option{gen.WithLogger(logger)}
	if o.pkg != "" {
		opts = append(opts, gen.WithPackage(o.pkg))
	}
	if o.workers > 0 {
		opts = append(opts, gen.WithWorkers(o.workers))
	}
	g, err := gen.NewEnumGenerator(o.out, opts...)
	if err != nil {
		return err
	}
	if err := g.Generate(ctx, specs); err != nil {
		return err
	}
	m := g.Metrics()
	logger.InfoContext(ctx, "generated enum types", "dir", o.out, "files", m.FilesGenerated, "bytes", m.TotalBytes)
	if o.gqlgen == "" {
		return nil
	}
	return bindGQLGen(o, specs)
}

func specsFromConfig(path string) ([]gen.EnumSpec, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	specs := make([]gen.EnumSpec, 0, len(cfg.Enums))
	for _, e := range cfg.Enums {
		specs = append(specs, gen.EnumSpec{Name: e.Name, Labels: e.Labels})
	}
	return specs, nil
}

func specsFromDatabase(ctx context.Context, o options, logger *slog.Logger) ([]gen.EnumSpec, error) {
	drv, err := sql.Open(dialect.Postgres, o.dsn, sql.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	defer drv.Close()
	opts := []schema.InspectOption{schema.WithLogger(logger)}
	if o.schema != "" {
		opts = append(opts, schema.WithSchema(o.schema))
	}
	inspector, err := schema.NewInspector(drv, opts...)
	if err != nil {
		return nil, err
	}
	enums, err := inspector.EnumTypes(ctx)
	if err != nil {
		return nil, err
	}
	specs := make([]gen.EnumSpec, 0, len(enums))
	for _, e := range enums {
		specs = append(specs, gen.EnumSpec{Name: e.Name, Labels: e.Labels})
	}
	return specs, nil
}

func bindGQLGen(o options, specs []gen.EnumSpec) error {
	cfg, err := graphql.LoadGQLGenConfig(o.gqlgen)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		name, err := s.TypeName()
		if err != nil {
			return err
		}
		names = append(names, name)
	}
	cfg.BindEnums(o.importPath, names...)
	return graphql.SaveGQLGenConfig(o.gqlgen, cfg)
}
