package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/timelocker/tracker/internal/catalog"
	"github.com/timelocker/tracker/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <screenshot>",
	Short: "Read the play result off a local screenshot",
	Long:  "Runs the screenshot analysis on an image file and prints the result as JSON. Nothing is stored.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		img, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "analyze: read screenshot")
		}

		env, err := initApp(ctx, "analyze")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Analyzer.Analyze(ctx, img)
		if err != nil {
			return err
		}
		return writeResult(os.Stdout, res)
	},
}

// writeResult prints res with its armaments complemented to the catalog.
func writeResult(out io.Writer, res *model.NoteSourcedPlayResult) error {
	shown := *res
	shown.Armaments = catalog.Default().Complement(res.Armaments)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(&shown)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
