package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-docfill"
	"github.com/goliatone/go-docfill/internal/config"
	"github.com/goliatone/go-docfill/internal/logging"
	pkgopenapi "github.com/goliatone/go-docfill/pkg/openapi"
	"github.com/goliatone/go-docfill/pkg/orchestrator"
	"github.com/goliatone/go-docfill/pkg/registry"
	"github.com/goliatone/go-docfill/pkg/render"
	"github.com/goliatone/go-docfill/pkg/schema"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	configPath string
	verbose    bool

	cfg       config.Config
	logger    *zap.Logger
	templates registry.Registry
	closers   []io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "docfill",
		Short: "Fill document templates from record data",
		Long: `docfill substitutes record values into spreadsheet templates and draws
canvas templates onto paginated documents (single records or label grids).

Templates live in a registry configured in the docfill config file
(--config or $` + config.EnvPath + `).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $"+config.EnvPath+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newRenderCmd(a),
		newFillCmd(a),
		newMapCmd(a),
		newTemplatesCmd(a),
		newFieldsCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Logging, a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger

	switch cfg.Registry.Driver {
	case config.DriverSQLite:
		store, err := registry.OpenSQLite(cfg.Registry.Path, registry.WithLogger(logger))
		if err != nil {
			return err
		}
		a.templates = store
		a.closers = append(a.closers, store)
	default:
		store, err := registry.NewFileStore(cfg.Registry.Path, registry.WithLogger(logger))
		if err != nil {
			return err
		}
		a.templates = store
	}
	logger.Debug("configuration loaded",
		zap.String("registry", cfg.Registry.Path),
		zap.String("driver", cfg.Registry.Driver),
	)
	return nil
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) fonts() *render.FontResolver {
	opts := []render.FontOption{render.WithFontLogger(a.logger), render.WithCoreFamily(a.cfg.Fonts.Fallback)}
	if a.cfg.Fonts.Bundled != "" {
		opts = append(opts, render.WithBundledFont(a.cfg.Fonts.Bundled))
	}
	if len(a.cfg.Fonts.System) > 0 {
		opts = append(opts, render.WithSystemFonts(a.cfg.Fonts.System...))
	}
	return render.NewFontResolver(opts...)
}

func (a *app) orchestrator() (*orchestrator.Orchestrator, error) {
	policy, err := render.ParseFieldErrorPolicy(a.cfg.Render.FieldErrors)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(
		orchestrator.WithRegistry(a.templates),
		orchestrator.WithLogger(a.logger),
		orchestrator.WithFontResolver(a.fonts()),
		orchestrator.WithDefaultBackend(a.cfg.Output.Backend),
		orchestrator.WithFieldErrorPolicy(policy),
		orchestrator.WithDocumentRoot(a.cfg.Registry.DocumentRoot),
	), nil
}

func (a *app) schema(ctx context.Context) (schema.Schema, error) {
	if src := strings.TrimSpace(a.cfg.Schema.OpenAPI); src != "" {
		source, err := pkgopenapi.ParseSource(src)
		if err != nil {
			return schema.Schema{}, err
		}
		return docfill.SchemaFromOpenAPI(ctx, source, a.cfg.Schema.Component)
	}
	s, err := schema.LoadOrCreate(a.cfg.Schema.Path)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("load schema: %w", err)
	}
	return s, nil
}
