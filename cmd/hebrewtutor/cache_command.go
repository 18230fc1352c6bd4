package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune cached word timings",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached chapter maps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.application()
			if err != nil {
				return err
			}
			entries, err := a.Cache.List()
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if entries == nil {
					return writeJSON(cmd, []any{})
				}
				return writeJSON(cmd, entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Book,
					strconv.Itoa(e.Chapter),
					strconv.FormatInt(e.Size, 10),
					e.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Book", "Chapter", "Bytes", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
				"No cached maps in "+a.Cache.Dir(),
			))
			return nil
		},
	}
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <book> <chapter>",
		Short: "Invalidate one chapter's cached map",
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
			removed, err := a.Alignment.Invalidate(book, chapter)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]bool{"removed": removed})
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed cached map for %s %d\n", book, chapter)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "No cached map for %s %d\n", book, chapter)
			}
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the cache without --yes")
			}
			a, err := ctx.application()
			if err != nil {
				return err
			}
			removed, err := a.Cache.Clear()
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]int{"removed": removed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached map(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm removal")
	return cmd
}
