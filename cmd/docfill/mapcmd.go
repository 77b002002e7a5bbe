package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-docfill"
	"github.com/goliatone/go-docfill/internal/prompt"
	"github.com/goliatone/go-docfill/pkg/backends/xlsx"
	"github.com/goliatone/go-docfill/pkg/mapping"
	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/placeholder"
)

type mapFlags struct {
	template    string
	interactive bool
	save        bool
	noFuzzy     bool
}

func newMapCmd(a *app) *cobra.Command {
	var f mapFlags
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Match template tokens to schema fields",
		Long: `Discovers the tokens of a template and matches them against the schema:
exact names first, then substring containment. Existing mappings are kept.
With --interactive the remaining tokens are resolved by prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd, a, f, prompt.NewSurveyDriver())
		},
	}
	cmd.Flags().StringVarP(&f.template, "template", "t", "", "template name")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "prompt for unmapped tokens")
	cmd.Flags().BoolVar(&f.save, "save", false, "write the mapping back without asking")
	cmd.Flags().BoolVar(&f.noFuzzy, "exact", false, "disable substring matching")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func runMap(cmd *cobra.Command, a *app, f mapFlags, driver prompt.Driver) error {
	ctx := cmd.Context()
	tpl, err := a.templates.Get(ctx, f.template)
	if err != nil {
		return err
	}
	tokens, err := templateTokens(tpl, a.cfg.Registry.DocumentRoot)
	if err != nil {
		return err
	}
	s, err := a.schema(ctx)
	if err != nil {
		return err
	}

	var opts []mapping.Option
	opts = append(opts, mapping.WithLogger(a.logger))
	if f.noFuzzy {
		opts = append(opts, mapping.WithoutFuzzy())
	}
	table, _ := docfill.AutoMap(tokens, s, tpl.Mappings, opts...)
	unmapped := table.Unmapped(tokens)

	if f.interactive && len(unmapped) > 0 {
		table, err = prompt.ResolveUnmapped(ctx, driver, table, unmapped, s.Names())
		if err != nil {
			return err
		}
		unmapped = table.Unmapped(tokens)
	}
	printMapping(cmd.OutOrStdout(), tokens, table)

	save := f.save
	if !save && f.interactive {
		save, err = prompt.ConfirmSave(ctx, driver, tpl.Name)
		if err != nil {
			return err
		}
	}
	if save {
		tpl.Mappings = table
		if err := a.templates.Put(ctx, tpl); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %d mapping(s) to %s\n", len(table), tpl.Name)
	}
	if len(unmapped) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d token(s) unmapped; they render empty\n", len(unmapped))
	}
	return nil
}

// templateTokens lists the tokens a template reads, in discovery order.
func templateTokens(tpl model.Template, root string) ([]string, error) {
	switch tpl.Kind {
	case model.KindCell:
		path := tpl.DocumentPath
		if root != "" && !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		wb, err := xlsx.Open(path)
		if err != nil {
			return nil, err
		}
		defer wb.Close()
		return placeholder.Discover(wb.Grid())
	case model.KindCanvas:
		if tpl.Canvas == nil {
			return nil, nil
		}
		var tokens []string
		seen := map[string]bool{}
		for _, p := range tpl.Canvas.Placements {
			if p.Field != "" {
				continue
			}
			token := mapping.Clean(p.Token)
			if token == "" || seen[token] {
				continue
			}
			seen[token] = true
			tokens = append(tokens, token)
		}
		return tokens, nil
	default:
		return nil, fmt.Errorf("template %q has unknown kind %q", tpl.Name, tpl.Kind)
	}
}

func printMapping(w io.Writer, tokens []string, table model.MappingTable) {
	for _, token := range tokens {
		field, ok := table.Lookup(token)
		if !ok {
			field = "-"
		}
		fmt.Fprintf(w, "{%s}\t%s\n", token, field)
	}
	var extra []string
	listed := map[string]bool{}
	for _, token := range tokens {
		listed[token] = true
	}
	for token := range table {
		if !listed[token] {
			extra = append(extra, token)
		}
	}
	sort.Strings(extra)
	for _, token := range extra {
		fmt.Fprintf(w, "{%s}\t%s\t(not in template)\n", token, table[token])
	}
}
