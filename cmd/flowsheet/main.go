// Package main provides the CLI entry point for flowsheet.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Tegakist/DSS/pkg/flowsheet/layout"
	"github.com/Tegakist/DSS/pkg/flowsheet/mapper"
)

var (
	layoutPath string
	presetName string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flowsheet",
		Short: "Keep process node statuses in sync with a spreadsheet",
		Long: `flowsheet reads process nodes (label, status and optional columns) from
the first worksheet of an xlsx file, lets you change them and writes them
back without touching any other cell.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFormatter(&log.TextFormatter{
				FullTimestamp: true,
			})
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&layoutPath, "layout", "", "Layout file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&presetName, "preset", layout.DefaultPreset, "Built-in layout when no --layout is given (board, progress)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(
		newExtractCmd(),
		newApplyCmd(),
		newSetStatusCmd(),
		newBoardCmd(),
		newServeCmd(),
		newDateCmd(),
		newLayoutCmd(),
	)
	return rootCmd
}

func resolveLayout() (*mapper.Layout, error) {
	l, err := layout.Resolve(layoutPath, presetName)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"layout":      layoutPath,
		"preset":      presetName,
		"header_rows": l.HeaderRowOffset + 1,
		"fields":      len(l.Fields),
	}).Debug("Resolved layout")
	return l, nil
}
