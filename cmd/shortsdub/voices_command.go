package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shortsdub/internal/api"
	"shortsdub/internal/config"
	"shortsdub/internal/daemonrun"
)

var voiceListerFactory = func(cfg *config.Config) api.VoiceLister {
	return daemonrun.NewSpeechClient(cfg)
}

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var target string

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List synthesis voices suited to the target language",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if target == "" {
				target = cfg.Languages.Target
			}
			resp, err := api.NewVoiceService(voiceListerFactory(cfg), target).List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list voices: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if len(resp.Voices) == 0 {
				fmt.Fprintln(out, "No voices available")
				return nil
			}
			rows := make([][]string, 0, len(resp.Voices))
			for _, v := range resp.Voices {
				marker := ""
				if v.ID == cfg.ElevenLabs.VoiceID {
					marker = "*"
				}
				rows = append(rows, []string{marker, v.ID, v.Name})
			}
			fmt.Fprintln(out, renderTable(tableLayout{
				Headers: []string{"", "Voice ID", "Name"},
				Rows:    rows,
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print voices as JSON")
	cmd.Flags().StringVar(&target, "target", "", "Target language (defaults to languages.target)")
	return cmd
}
