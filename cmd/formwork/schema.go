package main

import (
	"fmt"
	"os"

	"github.com/aretw0/formwork/pkg/schema"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Work with flow schemas",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the JSON Schema of flow schemas",
	Long:  `Prints the JSON Schema describing the field maps clients receive, for generating typed clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := schema.ExportJSONSchema()
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
		if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write schema: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema written to %s\n", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaExportCmd)
	schemaExportCmd.Flags().StringP("out", "o", "", "Write to a file instead of stdout")
}
