package main

import (
	"github.com/spf13/cobra"

	"shortsdub/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dubbing HTTP daemon in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireCredentials(); err != nil {
				return err
			}
			if bind != "" {
				cfg.Paths.APIBind = bind
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log output")
	cmd.Flags().StringVar(&bind, "bind", "", "Override paths.api_bind")
	return cmd
}
