package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var topicsFile string

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List available topics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := loadCatalog(topicsFile)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "TOPIC\tITEMS")
		for _, t := range catalog.Topics() {
			_, _ = fmt.Fprintf(w, "%s\t%d\n", t.Name, len(t.Items))
		}
		return w.Flush()
	},
}

func init() {
	topicsCmd.Flags().StringVar(&topicsFile, "file", "", "custom topics file (.yaml, .yml or .xlsx)")
	rootCmd.AddCommand(topicsCmd)
}
