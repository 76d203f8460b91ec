package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/elocute/internal/analysis"
	"github.com/MrWong99/elocute/internal/render"
)

func newReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review <result.json|->",
		Short: "Print a stored analysis result with its corrections",
		Long: `Align a stored analysis result against its sentence and print the
coloured sentence, one card per correction, the score and the message.

Pass - to read the result from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := readResult(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return render.NewTerminal(cmd.OutOrStdout()).Review(res)
		},
	}
}

func readResult(stdin io.Reader, path string) (analysis.Result, error) {
	var res analysis.Result
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return res, err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return res, fmt.Errorf("decode result %s: %w", path, err)
	}
	return res, nil
}
