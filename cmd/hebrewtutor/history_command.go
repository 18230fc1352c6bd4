package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hebrewtutor/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent alignment runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.application()
			if err != nil {
				return err
			}
			runs, err := a.History.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				status := r.Status
				if !r.Succeeded() && r.Error != "" {
					status += ": " + shortError(r.Error)
				}
				rows = append(rows, []string{
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					r.Book,
					strconv.Itoa(r.Chapter),
					status,
					strconv.Itoa(r.Words),
					strconv.Itoa(r.Fragments),
					fmt.Sprintf("%+d", r.Fragments-r.Words),
					r.Elapsed.Round(1e6).String(),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"When", "Book", "Chapter", "Status", "Words", "Fragments", "Delta", "Elapsed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight},
				"No alignment runs recorded",
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "Number of runs to show")
	return cmd
}

// shortError keeps table cells readable; the full error is in --json output.
func shortError(msg string) string {
	const limit = 48
	runes := []rune(strings.TrimSpace(msg))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-3]) + "..."
}
