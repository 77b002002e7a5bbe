package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/registry"
)

func newTemplatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage the template registry",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			names, err := a.templates.List(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tKIND\tMAPPINGS\tCREATED")
			for _, name := range names {
				tpl, err := a.templates.Get(ctx, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", tpl.Name, tpl.Kind, len(tpl.Mappings), tpl.CreatedAt.Format(model.TimestampLayout))
			}
			return w.Flush()
		},
	}

	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Print a template definition as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, err := a.templates.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tpl)
		},
	}

	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Remove a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.templates.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	var kind, document, canvasPath string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Register a template",
		Long: `Registers a cell template (--document, a spreadsheet with {tokens}) or a
canvas template (--canvas, a JSON file with a "fields" list).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl := model.Template{Name: args[0], Kind: model.TemplateKind(kind), DocumentPath: document}
			if canvasPath != "" {
				data, err := os.ReadFile(canvasPath)
				if err != nil {
					return err
				}
				canvas, err := model.ParseLegacyCanvas(data)
				if err != nil {
					return err
				}
				tpl.Canvas = canvas
			}
			if existing, err := a.templates.Get(cmd.Context(), args[0]); err == nil {
				tpl.Mappings = existing.Mappings
			}
			if err := a.templates.Put(cmd.Context(), tpl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", args[0])
			return nil
		},
	}
	add.Flags().StringVar(&kind, "kind", "", "template kind (cell, canvas); inferred when empty")
	add.Flags().StringVar(&document, "document", "", "spreadsheet template path")
	add.Flags().StringVar(&canvasPath, "canvas", "", "canvas definition JSON")

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Reload the template file whenever it changes",
		Long: `Watches the file registry and reports the registered templates after every
change, until interrupted. Only the file registry can be watched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, ok := a.templates.(*registry.FileStore)
			if !ok {
				return errors.New("templates watch requires the file registry")
			}
			out := cmd.OutOrStdout()
			store.OnReload(func(names []string) {
				fmt.Fprintf(out, "reloaded %d templates: %s\n", len(names), strings.Join(names, ", "))
			})
			if err := store.Watch(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("watching template registry", zap.String("path", store.Path()))
			fmt.Fprintf(out, "watching %s\n", store.Path())
			<-store.Done()
			return nil
		},
	}

	cmd.AddCommand(list, show, add, del, watch)
	return cmd
}
