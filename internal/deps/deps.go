package deps

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Requirement names an external binary the aligner or transcriber shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Path is the resolved executable; empty when the lookup failed.
	Path   string
	Detail string
}

// CheckBinaries resolves each requirement on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{
			Name:        req.Name,
			Command:     strings.TrimSpace(req.Command),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		status.Path, status.Detail = resolve(status.Command)
		status.Available = status.Path != ""
		results = append(results, status)
	}
	return results
}

// resolve returns the absolute path of command, or why it cannot be run.
func resolve(command string) (string, string) {
	if command == "" {
		return "", "command not configured"
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return "", fmt.Sprintf("binary %q not found", command)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path, ""
}
