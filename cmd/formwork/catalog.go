package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var featuresCmd = &cobra.Command{
	Use:   "features [resource-type]",
	Short: "List the features offered for a resource type",
	Long:  `Lists the features applicable to a resource type, or the type-less features when none is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, _, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var resourceType string
		if len(args) > 0 {
			resourceType = args[0]
		}
		features := app.Engine.Features(resourceType)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), features)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tNAME\tTARGETS")
		for _, f := range features {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ID, f.Type, f.Name, strings.Join(f.Targets, ","))
		}
		return tw.Flush()
	},
}

var resourcesCmd = &cobra.Command{
	Use:   "resources [scope]",
	Short: "Browse resources",
	Long: `Lists the root services, or the resources under a scope IRI.
A filter expression such as 'ResourceType == "EC2Instance"' narrows the listing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, _, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var scope string
		if len(args) > 0 {
			scope = args[0]
		}
		filter, _ := cmd.Flags().GetString("filter")

		items, err := app.Engine.Resources(cmd.Context(), scope, filter)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), items)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "IRI\tTYPE\tNAME")
		for _, r := range items {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.IRI, r.ResourceType, r.Name)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(resourcesCmd)

	featuresCmd.Flags().Bool("json", false, "Print JSON instead of a table")
	resourcesCmd.Flags().Bool("json", false, "Print JSON instead of a table")
	resourcesCmd.Flags().String("filter", "", "Filter expression evaluated against each resource")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
