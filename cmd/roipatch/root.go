package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for roipatch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roipatch",
		Short: "Annotate ROI centers and extract square image patches",
		Long: `roipatch builds image patch datasets in two phases.

annotate reads click events for one image, keeps the list of ROI centers
and saves it as a coordinate file plus a copy of the image with the ROI
squares drawn on it.

extract pairs every coordinate file with its source image and writes one
fixed-size square patch per center.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .roipatch in current, home or XDG config directory)")
	cmd.PersistentFlags().String("log-format", logFormatText, "Log format on stderr (text or json)")

	// Add subcommands
	cmd.AddCommand(NewAnnotateCmd())
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
