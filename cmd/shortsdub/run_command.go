package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"shortsdub/internal/api"
	"shortsdub/internal/config"
	"shortsdub/internal/daemonrun"
	"shortsdub/internal/ledger"
	"shortsdub/internal/logging"
	"shortsdub/internal/notifications"
	"shortsdub/internal/pipeline"
)

// stageFactory is swapped in tests to avoid shelling out.
var stageFactory = func(cfg *config.Config) pipeline.Stages {
	stages, _ := daemonrun.BuildStages(cfg)
	return stages
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Dub a single video URL without the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}

			logger, err := cliLogger(cfg, quiet)
			if err != nil {
				return err
			}

			var pipelineOpts []pipeline.Option
			var translateOpts []api.TranslateOption
			pipelineOpts = append(pipelineOpts, pipeline.WithJobLogs(cfg.Paths.LogDir))
			if cfg.Ledger.Enabled {
				store, err := ledger.Open(cfg.LedgerPath())
				if err != nil {
					return fmt.Errorf("open job ledger: %w", err)
				}
				defer store.Close()
				pipelineOpts = append(pipelineOpts, pipeline.WithObserver(store.Observer(logger)))
				translateOpts = append(translateOpts, api.WithRecorder(store))
			}
			notifier := notifications.NewService(cfg)
			defer notifier.Close()
			translateOpts = append(translateOpts, api.WithPublisher(notifier))

			orchestrator, err := pipeline.New(cfg, stageFactory(cfg), logger, pipelineOpts...)
			if err != nil {
				return err
			}
			svc := api.NewTranslateService(orchestrator, cfg.Paths.OutputDir, logger, translateOpts...)

			resp, err := svc.Translate(cmd.Context(), api.TranslateRequest{URL: args[0]})
			if err != nil {
				var reqErr *api.RequestError
				if jsonOutput && errors.As(err, &reqErr) {
					if encErr := writeJSON(cmd, api.ErrorResponse{Error: reqErr.Message}); encErr != nil {
						return encErr
					}
				}
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			path, _ := svc.DownloadPath(resp.JobID)
			printRunResult(cmd.OutOrStdout(), resp, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	return cmd
}

// cliLogger logs to stderr so stdout carries only the result, and mirrors
// to the shared shortsdub.log file.
func cliLogger(cfg *config.Config, quiet bool) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if quiet {
		level = "warn"
	}
	return logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stderr", filepath.Join(cfg.Paths.LogDir, "shortsdub.log")},
		ErrorOutputPaths: []string{"stderr"},
	})
}

func printRunResult(out io.Writer, resp api.TranslateResponse, path string) {
	fmt.Fprintf(out, "Job:    %s\n", resp.JobID)
	if path != "" {
		fmt.Fprintf(out, "Output: %s\n", path)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Source:")
	fmt.Fprintln(out, indent(resp.SourceText))
	fmt.Fprintln(out, "Dubbed:")
	fmt.Fprintln(out, indent(resp.TargetText))
}

func indent(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
