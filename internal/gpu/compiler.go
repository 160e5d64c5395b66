package gpu

import (
	"context"
	"os/exec"
	"regexp"

	"mxprobe/internal/logging"
)

var nvccRelease = regexp.MustCompile(`release (\d+\.\d+)`)

// CompilerDetector looks for the CUDA compiler on the build host
type CompilerDetector struct {
	tool     string
	logger   *logging.Logger
	lookPath func(string) (string, error)
	output   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCompilerDetector creates a detector for the nvcc binary named by tool
func NewCompilerDetector(tool string, logger *logging.Logger) *CompilerDetector {
	return &CompilerDetector{
		tool:     tool,
		logger:   logger,
		lookPath: exec.LookPath,
		output: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output() // #nosec G204 -- tool comes from validated config
		},
	}
}

// DetectNVCC runs `nvcc --version` and extracts the release number. A missing
// or broken compiler is reported, never returned as an error.
func (cd *CompilerDetector) DetectNVCC(ctx context.Context) CompilerReport {
	report := CompilerReport{}

	path, err := cd.lookPath(cd.tool)
	if err != nil {
		report.ErrorMessage = "nvcc not found on PATH"
		cd.logger.Debug("gpu.nvcc.missing", "CUDA compiler not found", map[string]interface{}{
			"tool": cd.tool,
		})
		return report
	}
	report.Path = path

	out, err := cd.output(ctx, path, "--version")
	if err != nil {
		report.ErrorMessage = "nvcc --version failed: " + err.Error()
		cd.logger.Warn("gpu.nvcc.version.failed", "CUDA compiler did not report a version", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return report
	}

	report.Available = true
	report.Release = ParseNVCCRelease(string(out))

	cd.logger.Debug("gpu.nvcc.detected", "CUDA compiler detected", map[string]interface{}{
		"path":    path,
		"release": report.Release,
	})

	return report
}

// ParseNVCCRelease extracts "X.Y" from nvcc's version banner, or "".
//
// Expected line: "Cuda compilation tools, release 12.2, V12.2.140"
func ParseNVCCRelease(output string) string {
	m := nvccRelease.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	return m[1]
}
