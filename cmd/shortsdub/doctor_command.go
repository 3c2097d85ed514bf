package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"shortsdub/internal/deps"
	"shortsdub/internal/preflight"
	"shortsdub/internal/stage"
)

const doctorTimeout = 20 * time.Second

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, directories, and provider credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			fmt.Fprintf(out, "Languages: %s -> %s\n\n", cfg.Languages.Source, cfg.Languages.Target)

			statuses := preflight.CheckSystemDeps(cfg)
			printDependencies(out, statuses)

			readiness := preflight.StageReadiness(cfg, statuses)
			printReadiness(out, readiness)

			failed := 0
			if !offline {
				checkCtx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
				defer cancel()
				results := preflight.RunAll(checkCtx, cfg)
				printPreflight(out, results)
				for _, r := range results {
					if !r.Passed {
						failed++
					}
				}
			}

			overall, blocked := stage.Overall(readiness)
			fmt.Fprintf(out, "Overall: %s\n", overall)
			if blocked != "" {
				return fmt.Errorf("stages not ready: %s", blocked)
			}
			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip network and filesystem probes; report binaries only")
	return cmd
}

func printDependencies(out io.Writer, statuses []deps.Status) {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		detail := s.Detail
		if detail == "" {
			detail = s.Description
		}
		rows = append(rows, []string{s.Name, s.Command, yesNo(s.Available), detail})
	}
	fmt.Fprintln(out, renderTable(tableLayout{
		Title:    "Binaries",
		Headers:  []string{"Dependency", "Command", "Available", "Detail"},
		Rows:     rows,
		MaxWidth: map[int]int{1: 50, 3: 60},
	}))
}

func printReadiness(out io.Writer, health []stage.Health) {
	rows := make([][]string, 0, len(health))
	for _, h := range health {
		rows = append(rows, []string{h.Name, yesNo(h.Ready), h.Detail})
	}
	fmt.Fprintln(out, renderTable(tableLayout{
		Title:   "Stages",
		Headers: []string{"Stage", "Ready", "Detail"},
		Rows:    rows,
	}))
}

func printPreflight(out io.Writer, results []preflight.Result) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "pass"
		if !r.Passed {
			status = "FAIL"
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	fmt.Fprintln(out, renderTable(tableLayout{
		Title:   "Checks",
		Headers: []string{"Check", "Result", "Detail"},
		Rows:    rows,
	}))
}
