package preflight

import (
	"context"
	"fmt"

	"hebrewtutor/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results,
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Sync maps directory", cfg.Paths.SyncMapsDir),
		CheckFreeSpace("Data directory space", cfg.Paths.DataDir),
		CheckDirectoryReadable("Content directory", cfg.Paths.ContentDir),
		CheckDirectoryReadable("Audio directory", cfg.Paths.AudioDir),
	)

	if cfg.Transcription.Enabled {
		results = append(results, CheckDirectoryAccess("Upload directory", cfg.Paths.UploadDir))
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = fmt.Sprintf("%s (%s)", status.Command, status.Path)
		}
		if status.Optional && !status.Available {
			result.Passed = true
			result.Detail = "optional: " + status.Detail
		}
		results = append(results, result)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
