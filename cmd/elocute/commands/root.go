// Package commands implements the elocute command line.
package commands

import (
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "elocute",
		Short: "Pronunciation practice with live waveform and correction review",
		Long: `elocute serves a practice page that records a sentence, shows a live
speech-band waveform while recording, sends the attempt to an analyzer and
walks the learner through every correction.

Examples:
  elocute serve --config config.yaml
  elocute review result.json
  elocute visemes "θɪŋk"`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newReviewCmd(), newVisemesCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
