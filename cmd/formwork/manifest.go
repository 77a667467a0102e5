package main

import (
	"fmt"
	"os"

	"github.com/aretw0/formwork/internal/presentation/tui"
	"github.com/aretw0/formwork/pkg/manifest"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/spf13/cobra"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Work with question manifests",
}

var manifestValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a question manifest",
	Long:  `Parses a question manifest (JSON or YAML), validates it against the document schema and resolves its cross-references.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manifest.Load(args[0])
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Manifest is valid: %d questions\n", m.Len())
		return nil
	},
}

var manifestPreviewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Show the first schema a manifest offers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manifest.Load(args[0])
		if err != nil {
			return err
		}
		md := tui.SchemaMarkdown(schema.Generate(m, nil))
		if tui.IsTerminal(os.Stdout) {
			if r, err := tui.NewRenderer(); err == nil {
				if out, err := r(md); err == nil {
					md = out
				}
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

var manifestSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of question manifests",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.OutOrStdout().Write(manifest.DocumentSchema())
		return err
	},
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.AddCommand(manifestValidateCmd)
	manifestCmd.AddCommand(manifestPreviewCmd)
	manifestCmd.AddCommand(manifestSchemaCmd)
}
