package main

import (
	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Print the column schema inferred from the dataset",
	Long: `Inspect the dataset and print the inferred column schema, with any
schema overrides from the config applied.

Examples:
  vadash discover --data student-mat.csv
  vadash discover --data student-por.csv --format json > schema.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		return write(cmd.OutOrStdout(), rt.schema)
	},
}
