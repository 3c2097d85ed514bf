package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"shortsdub/internal/retention"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove job artifacts older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			age := cfg.RetentionMaxAge()
			if maxAge > 0 {
				age = maxAge
			}
			if age <= 0 {
				return fmt.Errorf("retention window is zero; pass --max-age")
			}

			opts := retention.Options{
				OutputDir: cfg.Paths.OutputDir,
				LogDir:    cfg.Paths.LogDir,
				MaxAge:    age,
				DryRun:    dryRun,
			}
			if cfg.Ledger.Enabled && !dryRun {
				store, err := openLedger(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
				opts.Ledger = store
			}

			result, err := retention.Sweep(cmd.Context(), opts)
			if err != nil {
				return err
			}
			printSweepResult(cmd.OutOrStdout(), result, dryRun)
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d artifact(s) could not be removed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be removed without deleting")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Override retention.max_age_hours (e.g. 6h)")
	return cmd
}

func printSweepResult(out io.Writer, result retention.Result, dryRun bool) {
	verb := "Removed"
	if dryRun {
		verb = "Would remove"
	}
	if len(result.Removed) == 0 {
		fmt.Fprintln(out, "Nothing to clean up")
	}
	for _, path := range result.Removed {
		fmt.Fprintf(out, "%s %s\n", verb, path)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "Failed %s: %v\n", e.Path, e.Error)
	}
	fmt.Fprintf(out, "%s %d path(s), %s; %d job log(s); %d ledger record(s)\n",
		verb, len(result.Removed), formatSize(result.Bytes), result.LogsRemoved, result.RecordsPruned)
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
