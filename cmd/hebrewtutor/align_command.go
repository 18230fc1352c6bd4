package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newAlignCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var showWords bool

	cmd := &cobra.Command{
		Use:   "align <book> <chapter>",
		Short: "Generate (or fetch cached) word timings for a chapter",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, chapter, err := parseChapterArgs(args)
			if err != nil {
				return err
			}
			a, err := ctx.application()
			if err != nil {
				return err
			}
			result, err := a.Alignment.Generate(cmd.Context(), book, chapter, force)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			source := "generated"
			if result.CacheHit {
				source = "cache"
			}
			fmt.Fprintf(out, "%s %d: %d words (%s)\n", book, chapter, len(result.Words), source)
			fmt.Fprintf(out, "Map: %s\n", result.Path)
			if !result.CacheHit {
				r := result.Report
				fmt.Fprintf(out, "Fragments: %d  overrun: %d  underrun: %d  mismatched: %d  elapsed: %s\n",
					r.Fragments, r.Overrun, r.Underrun, r.Mismatched, result.Elapsed.Round(1e6))
				if r.Suspect() {
					fmt.Fprintln(out, "Warning: most fragments do not match their words; check the recording matches the text")
				}
			}
			if showWords {
				rows := make([][]string, 0, len(result.Words))
				for _, w := range result.Words {
					rows = append(rows, []string{
						strconv.Itoa(w.VerseIndex + 1),
						strconv.Itoa(w.WordIndex + 1),
						w.Word,
						fmt.Sprintf("%.3f", w.Start),
						fmt.Sprintf("%.3f", w.End),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Verse", "Word", "Text", "Start", "End"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight},
					"No words in this chapter",
				))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Regenerate even when a cached map exists")
	cmd.Flags().BoolVar(&showWords, "words", false, "Print every timed word")
	return cmd
}
