package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shortsdub/internal/api"
	"shortsdub/internal/config"
	"shortsdub/internal/ledger"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect the job ledger",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			return withJobService(ctx, func(svc *api.JobService) error {
				resp, err := svc.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				printJobList(cmd.OutOrStdout(), resp)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print jobs as JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job and its state transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return withJobService(ctx, func(svc *api.JobService) error {
				resp, err := svc.Describe(cmd.Context(), id)
				if errors.Is(err, api.ErrNotFound) {
					return fmt.Errorf("job %s not found", id)
				}
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				printJobDetail(cmd.OutOrStdout(), resp)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the job as JSON")
	return cmd
}

func withJobService(ctx *commandContext, fn func(*api.JobService) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(api.NewJobService(store))
}

func openLedger(cfg *config.Config) (*ledger.Store, error) {
	if !cfg.Ledger.Enabled {
		return nil, errors.New("job ledger is disabled (set ledger.enabled = true)")
	}
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("open job ledger: %w", err)
	}
	return store, nil
}

func printJobList(out io.Writer, resp api.JobListResponse) {
	if len(resp.Jobs) == 0 {
		fmt.Fprintln(out, "No jobs recorded")
		return
	}
	rows := make([][]string, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		status := j.State
		if j.FailedStage != "" {
			status = fmt.Sprintf("%s (%s)", j.State, j.FailedStage)
		}
		rows = append(rows, []string{j.ID, status, formatElapsed(j.ElapsedMS), j.CreatedAt, j.SourceURL})
	}
	fmt.Fprintln(out, renderTable(tableLayout{
		Headers:  []string{"Job", "State", "Elapsed", "Created", "Source"},
		Aligns:   []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
		Rows:     rows,
		MaxWidth: map[int]int{4: 60},
	}))
	if len(resp.Stats) > 0 {
		fmt.Fprintln(out, renderTable(tableLayout{
			Headers: []string{"State", "Count"},
			Aligns:  []columnAlignment{alignLeft, alignRight},
			Rows:    statRows(resp.Stats),
		}))
	}
}

func statRows(stats map[string]int) [][]string {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, strconv.Itoa(stats[k])})
	}
	return rows
}

func printJobDetail(out io.Writer, resp api.JobDetailResponse) {
	j := resp.Job
	fmt.Fprintf(out, "Job:      %s\n", j.ID)
	fmt.Fprintf(out, "Source:   %s\n", j.SourceURL)
	fmt.Fprintf(out, "State:    %s\n", j.State)
	if j.FailedStage != "" {
		fmt.Fprintf(out, "Failed:   %s\n", j.FailedStage)
	}
	if j.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", j.Error)
	}
	if j.DownloadURL != "" {
		fmt.Fprintf(out, "Download: %s\n", j.DownloadURL)
	}
	fmt.Fprintf(out, "Elapsed:  %s\n", formatElapsed(j.ElapsedMS))
	if j.SourceText != "" {
		fmt.Fprintf(out, "\nTranscript:\n%s\n", indent(j.SourceText))
	}
	if j.TargetText != "" {
		fmt.Fprintf(out, "\nTranslation:\n%s\n", indent(j.TargetText))
	}
	if len(resp.Events) == 0 {
		return
	}
	rows := make([][]string, 0, len(resp.Events))
	for _, e := range resp.Events {
		detail := e.Message
		if detail == "" {
			detail = e.Artifact
		}
		rows = append(rows, []string{e.At, e.From, e.To, formatElapsed(e.DurationMS), detail})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(tableLayout{
		Title:    "Transitions",
		Headers:  []string{"At", "From", "To", "Took", "Detail"},
		Aligns:   []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		Rows:     rows,
		MaxWidth: map[int]int{4: 70},
	}))
}

func formatElapsed(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return d.String()
	}
	return d.Round(100 * time.Millisecond).String()
}
