package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/v0xg/menusweep/internal/config"
	"github.com/v0xg/menusweep/internal/scanner"
)

func newPatternsCmd(loader *config.Loader) *cobra.Command {
	var patternsFile string

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the patterns a scan would look for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ov := config.Overrides{}
			if cmd.Flags().Changed("patterns") {
				ov.PatternsFile = patternsFile
			}
			cfg, err := loader.Load(ov)
			if err != nil {
				return err
			}
			reg, err := cfg.Registry()
			if err != nil {
				return fmt.Errorf("load patterns: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPATTERN\tVALIDATOR\tDESCRIPTION")
			for _, spec := range reg.Specs() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", spec.Name, spec.Expr, orDash(spec.Validator), spec.Description)
			}
			fmt.Fprintf(w, "\nvalidators: %v\n", scanner.Validators())
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&patternsFile, "patterns", "", "YAML file with the patterns to scan for")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
