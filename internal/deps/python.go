package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// moduleProbeTimeout bounds interpreter start-up plus the import.
const moduleProbeTimeout = 20 * time.Second

// ModuleRequirement names a Python module that must import cleanly.
type ModuleRequirement struct {
	Name        string
	Python      string
	Module      string
	Description string
	Optional    bool
}

// CheckPythonModules imports each module with its interpreter and reports the
// result. A missing interpreter is reported without attempting the import.
func CheckPythonModules(ctx context.Context, requirements []ModuleRequirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		python := strings.TrimSpace(req.Python)
		status := Status{
			Name:        req.Name,
			Command:     fmt.Sprintf("%s -c 'import %s'", python, req.Module),
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if python == "" {
			status.Detail = "interpreter not configured"
			results = append(results, status)
			continue
		}
		if status.Path, status.Detail = resolve(python); status.Path == "" {
			results = append(results, status)
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, moduleProbeTimeout)
		output, err := exec.CommandContext(probeCtx, status.Path, "-c", "import "+req.Module).CombinedOutput() //nolint:gosec
		cancel()
		if err != nil {
			status.Detail = fmt.Sprintf("module %q not importable: %s", req.Module, lastLine(string(output), err))
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

func lastLine(output string, err error) string {
	output = strings.TrimSpace(output)
	if output == "" {
		return err.Error()
	}
	lines := strings.Split(output, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
