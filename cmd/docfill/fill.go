package main

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-docfill/pkg/orchestrator"
)

type fillFlags struct {
	template string
	records  string
	ids      string
	dir      string
	workers  int
}

func newFillCmd(a *app) *cobra.Command {
	var f fillFlags
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill a spreadsheet template once per record",
		Long: `Writes one filled copy of a cell template for every record. Jobs run on a
bounded worker pool; each job is independent and the first fatal failure
stops the remaining ones.`,
		Example: `  docfill fill --template 入职登记 --records staff.db --ids e1,e2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(cmd, a, f)
		},
	}
	cmd.Flags().StringVarP(&f.template, "template", "t", "", "template name")
	cmd.Flags().StringVarP(&f.records, "records", "r", "", "record source (.xlsx or SQLite file)")
	cmd.Flags().StringVar(&f.ids, "ids", "", "comma separated record keys (database sources)")
	cmd.Flags().StringVarP(&f.dir, "output-dir", "o", "", "output directory (default output.dir)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "concurrent jobs (default output.workers)")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func runFill(cmd *cobra.Command, a *app, f fillFlags) error {
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

	recs, err := src.Records(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("record source is empty")
	}

	orch, err := a.orchestrator()
	if err != nil {
		return err
	}
	dir := f.dir
	if dir == "" {
		dir = a.cfg.Output.Dir
	}
	workers := f.workers
	if workers <= 0 {
		workers = a.cfg.Output.Workers
	}

	results := make([]orchestrator.Result, len(recs))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rec := range recs {
		g.Go(func() error {
			res, err := orch.FillDocument(gctx, orchestrator.DocumentRequest{
				Template: f.template,
				Record:   rec,
				Output:   filepath.Join(dir, outputName(f.template, i, rec, a.cfg.Records.KeyColumn)),
			})
			mu.Lock()
			results[i] = res
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("record %d: %w", i+1, err)
			}
			return nil
		})
	}
	err = g.Wait()

	saved := 0
	out := cmd.OutOrStdout()
	for _, res := range results {
		if res.State != orchestrator.StateSaved {
			continue
		}
		saved++
		fmt.Fprintln(out, res.Output)
		for _, d := range res.Diagnostics {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", res.Output, d)
		}
	}
	a.logger.Info("fill finished", zap.String("template", f.template), zap.Int("saved", saved), zap.Int("records", len(recs)))
	return err
}
