package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/orchestrator"
)

type renderFlags struct {
	template string
	records  string
	ids      string
	output   string
	backend  string
	layout   string
	perPage  int
}

func newRenderCmd(a *app) *cobra.Command {
	var f renderFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a canvas template over a record source",
		Long: `Draws every record onto pages using a canvas template. With --layout grid
several records share a page as labels; the default places one record per page.`,
		Example: `  docfill render --template badge --records staff.xlsx --layout grid --per-page 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, a, f)
		},
	}
	cmd.Flags().StringVarP(&f.template, "template", "t", "", "template name")
	cmd.Flags().StringVarP(&f.records, "records", "r", "", "record source (.xlsx or SQLite file)")
	cmd.Flags().StringVar(&f.ids, "ids", "", "comma separated record keys (database sources)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default <output.dir>/<template>)")
	cmd.Flags().StringVar(&f.backend, "backend", "", "page backend (pdf, preview)")
	cmd.Flags().StringVar(&f.layout, "layout", "", "override layout mode (standard, grid)")
	cmd.Flags().IntVar(&f.perPage, "per-page", 0, "records per page for grid layouts")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func runRender(cmd *cobra.Command, a *app, f renderFlags) error {
	ctx := cmd.Context()
	s, err := a.schema(ctx)
	if err != nil {
		return err
	}
	src, done, err := recordSource(a.cfg, f.records, splitIDs(f.ids), s.Names())
	if err != nil {
		return err
	}
	defer done()

	layout, err := layoutOverride(a, f)
	if err != nil {
		return err
	}
	output := f.output
	if output == "" {
		output = filepath.Join(a.cfg.Output.Dir, f.template)
	}

	orch, err := a.orchestrator()
	if err != nil {
		return err
	}
	res, err := orch.RenderCanvas(ctx, orchestrator.CanvasRequest{
		Template: f.template,
		Records:  src,
		Layout:   layout,
		Output:   output,
		Backend:  f.backend,
	})
	if err != nil {
		return fmt.Errorf("job %s %s: %w", res.JobID, res.State, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d record(s) on %d page(s) -> %s\n", res.State, res.Records, res.Pages, res.Output)
	for _, d := range res.Diagnostics {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", d)
	}
	return nil
}

// layoutOverride builds a layout from flags, or nil to use the template's.
func layoutOverride(a *app, f renderFlags) (*model.LayoutConfig, error) {
	if f.layout == "" && f.perPage == 0 {
		return nil, nil
	}
	cfg := a.cfg
	if f.layout != "" {
		cfg.Layout.Mode = f.layout
	} else {
		cfg.Layout.Mode = string(model.ModeGrid)
	}
	if f.perPage > 0 {
		cfg.Layout.ItemsPerPage = f.perPage
	}
	layout, err := cfg.LayoutConfig()
	if err != nil {
		return nil, err
	}
	return &layout, nil
}
