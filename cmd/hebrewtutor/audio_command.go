package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hebrewtutor/internal/audiofile"
)

type audioReport struct {
	Book     string  `json:"book"`
	Chapter  int     `json:"chapter"`
	Path     string  `json:"path"`
	Size     int64   `json:"size"`
	Seconds  float64 `json:"seconds,omitempty"`
	ProbeErr string  `json:"probe_error,omitempty"`
}

func newAudioCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "audio <book> <chapter>",
		Short: "Resolve and probe a chapter recording",
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
			path, err := a.Audio.Resolve(book, chapter)
			if err != nil {
				return err
			}
			report := audioReport{Book: book, Chapter: chapter, Path: path}
			info, probeErr := audiofile.Probe(path)
			if probeErr != nil {
				report.ProbeErr = probeErr.Error()
			} else {
				report.Size = info.Size
				report.Seconds = info.Duration.Seconds()
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path: %s\n", report.Path)
			if probeErr != nil {
				fmt.Fprintf(out, "Probe failed: %s\n", report.ProbeErr)
				return nil
			}
			fmt.Fprintf(out, "Duration: %s\n", info.Duration.Round(1e7))
			fmt.Fprintf(out, "Sample rate: %d Hz\n", info.SampleRate)
			return nil
		},
	}
}
