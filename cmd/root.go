// Package cmd contains all Cobra commands for askdata.
//
// Design decision: the root command launches the TUI directly.
// Source selection can happen inside the TUI, but the common case of
// pointing at one CSV is a single flag away.
package cmd

import (
	"github.com/askdata/askdata/tui"
	"github.com/spf13/cobra"
)

var (
	flagCSV     string
	flagURL     string
	flagDataset string
)

var rootCmd = &cobra.Command{
	Use:   "askdata",
	Short: "Chat with your data in the terminal",
	Long: `askdata loads a CSV dataset into an embedded SQL store and
lets you interrogate it conversationally:
  • AI-inferred table schema from a CSV preview
  • Questions answered by SQL run behind the scenes
  • Terminal charts for visual questions
  • Open-data catalog integration

Run 'askdata' to start the TUI with a dataset source screen, or pass
--csv/--url/--dataset to load a source immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tui.Start(tui.StartOptions{
			CSVPath: flagCSV,
			URL:     flagURL,
			Dataset: flagDataset,
		})
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagCSV, "csv", "", "path to a local CSV file to load")
	rootCmd.Flags().StringVar(&flagURL, "url", "", "URL of a CSV file to load")
	rootCmd.Flags().StringVar(&flagDataset, "dataset", "", "open-data catalog dataset identifier to load")
	rootCmd.MarkFlagsMutuallyExclusive("csv", "url", "dataset")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
