package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFieldsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "Print the field schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.schema(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE\tREQUIRED\tUNIQUE")
			for _, f := range s.Fields() {
				fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", f.Name, f.Type, f.Required, f.Unique)
			}
			return w.Flush()
		},
	}
}
