package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hebrewtutor/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check tools, directories, and cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"config": ctx.configPath,
					"ready":  len(preflight.Failed(results)) == 0,
					"checks": results,
				})
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("hebrewtutor", colorize) {
				fmt.Fprintln(out, line)
			}
			configLabel := ctx.configPath
			if configLabel == "" {
				configLabel = "defaults"
			}
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, configLabel, colorize))
			fmt.Fprintln(out, "")
			for _, line := range checkLines(results, colorize) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func checkLines(results []preflight.Result, colorize bool) []string {
	failed := preflight.Failed(results)
	lines := make([]string, 0, len(results)+2)
	if len(failed) == 0 {
		lines = append(lines, renderStatusLine("Summary", statusOK, "All checks passed", colorize))
	} else {
		lines = append(lines, renderStatusLine("Summary", statusError,
			fmt.Sprintf("%d of %d checks failed", len(failed), len(results)), colorize))
	}
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	if len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, r := range failed {
			names = append(names, r.Name)
		}
		lines = append(lines, statusIndent+"Failing: "+strings.Join(names, ", "))
	}
	return lines
}
