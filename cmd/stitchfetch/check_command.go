package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stitchfetch/internal/preflight"
	"stitchfetch/internal/stitch"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify credentials, API access, and output paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var source stitch.ScreenGetter
			if cfg.ValidateCredentials() == nil {
				client, err := stitch.New(cfg.Stitch.APIKey, cfg.Stitch.BaseURL, cfg.Stitch.ProjectID,
					stitch.WithTimeout(cfg.RequestTimeout()),
				)
				if err != nil {
					return err
				}
				source = client
			}

			results := preflight.RunAll(cmd.Context(), cfg, source)
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				status := "failed"
				if result.Passed {
					status = "passed"
				}
				rows = append(rows, []string{result.Name, statusLabel(status, colorize), result.Detail})
			}
			fmt.Fprintln(out, renderTable([]column{textCol("Check"), textCol("Status"), detailCol("Detail")}, rows))

			if !preflight.Passed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
