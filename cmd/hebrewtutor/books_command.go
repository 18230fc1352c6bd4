package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hebrewtutor/internal/audiofile"
)

func newBooksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List books in the content library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.application()
			if err != nil {
				return err
			}
			books, err := a.Library.Books()
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if books == nil {
					return writeJSON(cmd, []any{})
				}
				return writeJSON(cmd, books)
			}
			rows := make([][]string, 0, len(books))
			for _, b := range books {
				rows = append(rows, []string{b.Name, b.HebrewName, strconv.Itoa(b.Chapters), yesNo(audiofile.Known(b.Name))})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Book", "Hebrew", "Chapters", "Audio naming"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				"No books found in "+a.Config.Paths.ContentDir,
			))
			return nil
		},
	}
}
