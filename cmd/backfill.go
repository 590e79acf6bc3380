package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/timelocker/tracker/internal/backfill"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Rewrite stored play results",
	Long:  "Commands that walk every stored play result one at a time, rate limited by backfill.items_per_second.",
}

var backfillMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade stored records to the current schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "backfill")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := newBackfillRunner(cmd, env).Update(ctx, "migrate", backfill.Migrate)
		if err != nil {
			return err
		}
		formatBackfillResult(os.Stdout, "migrate", res)
		return nil
	},
}

var backfillPatchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Recompute one title-derived field of every stored record",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		field, _ := cmd.Flags().GetString("field")
		fn, err := backfill.Patch(backfill.Field(field), nil)
		if err != nil {
			return err
		}

		env, err := initApp(ctx, "backfill")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := newBackfillRunner(cmd, env).Update(ctx, "patch "+field, fn)
		if err != nil {
			return err
		}
		formatBackfillResult(os.Stdout, "patch "+field, res)
		return nil
	},
}

var backfillReanalyzeCmd = &cobra.Command{
	Use:   "reanalyze",
	Short: "Analyze notes again and overwrite their stored records",
	Long:  "Re-runs the note pipeline for the given notes, or for every note of the notebook when --note is not set.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "reanalyze")
		if err != nil {
			return err
		}
		defer env.Close()

		ids, _ := cmd.Flags().GetStringSlice("note")
		if len(ids) == 0 {
			if cfg.Notion.DatabaseID == "" {
				return eris.New("backfill: notion.database_id is required without --note")
			}
			ids, err = backfill.NoteIDs(ctx, env.Notes, cfg.Notion.DatabaseID)
			if err != nil {
				return err
			}
		}

		res, err := newBackfillRunner(cmd, env).Reanalyze(ctx, env.Processor, ids)
		if err != nil {
			return err
		}
		formatBackfillResult(os.Stdout, "reanalyze", res)
		return nil
	},
}

func newBackfillRunner(cmd *cobra.Command, env *appEnv) *backfill.Runner {
	dry, _ := cmd.Flags().GetBool("dry-run")
	return backfill.NewRunner(env.Blobs, cfg.Backfill.ItemsPerSecond, backfill.WithDryRun(dry))
}

// formatBackfillResult writes the counts of a backfill run to w.
func formatBackfillResult(out io.Writer, name string, res backfill.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Backfill:\t%s\n", name)
	_, _ = fmt.Fprintf(w, "Total:\t%d\n", res.Total)
	_, _ = fmt.Fprintf(w, "Updated:\t%d\n", res.Updated)
	_, _ = fmt.Fprintf(w, "Skipped:\t%d\n", res.Skipped)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", res.Failed)
	_ = w.Flush()
}

func fieldNames() string {
	names := make([]string, len(backfill.Fields))
	for i, f := range backfill.Fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func init() {
	backfillCmd.PersistentFlags().Bool("dry-run", false, "compute changes without writing them")
	backfillPatchCmd.Flags().String("field", "", "field to recompute ("+fieldNames()+")")
	_ = backfillPatchCmd.MarkFlagRequired("field")
	backfillReanalyzeCmd.Flags().StringSlice("note", nil, "note IDs to reanalyze (default: every note)")

	backfillCmd.AddCommand(backfillMigrateCmd)
	backfillCmd.AddCommand(backfillPatchCmd)
	backfillCmd.AddCommand(backfillReanalyzeCmd)
	rootCmd.AddCommand(backfillCmd)
}
