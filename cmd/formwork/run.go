package main

import (
	"os"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/cli"
	"github.com/aretw0/formwork/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <feature> [target]",
	Short: "Fill a create flow interactively",
	Long: `Starts the create feature against an optional target IRI and asks for each
offered field on the terminal. Press Enter to accept a default, or type the
number of a listed option.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()
		cmd.SetContext(sc)

		app, _, logger, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var target string
		if len(args) > 1 {
			target = args[1]
		}

		opts := []cli.WizardOption{cli.WithWizardLogger(logger)}
		quiet, _ := cmd.Flags().GetBool("quiet")
		if tui.IsTerminal(os.Stdout) {
			if !quiet {
				tui.PrintBanner(cmd.OutOrStdout(), formwork.Version)
			}
			if r, err := tui.NewRenderer(); err == nil {
				opts = append(opts, cli.WithRenderer(r))
			}
		}

		in := cli.NewInterruptibleReader(os.Stdin, sc.Done())
		w := cli.NewWizard(app.Engine, in, cmd.OutOrStdout(), opts...)
		_, err = w.Run(sc, args[0], target)
		return cli.HandleExecutionError(err)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
