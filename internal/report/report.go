package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mxprobe/internal/fsutil"
	"mxprobe/internal/gpu"
	"mxprobe/internal/hostcpu"
	"mxprobe/internal/logging"
	"mxprobe/internal/probe"
)

// Report is everything `mxprobe check` knows about the build host
type Report struct {
	Version     string             `json:"version"`
	GeneratedAt time.Time          `json:"generated_at"`
	Probe       probe.Report       `json:"probe"`
	Macros      []string           `json:"macros"`
	GPU         gpu.GPUReport      `json:"host_gpu"`
	NVCC        gpu.CompilerReport `json:"nvcc"`
	CPU         hostcpu.Features   `json:"host_cpu"`
}

// Prober runs the MXNet feature detection.
type Prober interface {
	Probe(ctx context.Context) probe.Report
}

// GPUDetector reports host GPUs.
type GPUDetector interface {
	DetectGPUs() gpu.GPUReport
}

// CompilerDetector reports the host CUDA compiler.
type CompilerDetector interface {
	DetectNVCC(ctx context.Context) gpu.CompilerReport
}

// Collector assembles a Report from the individual detectors
type Collector struct {
	Version  string
	Prober   Prober
	GPU      GPUDetector
	Compiler CompilerDetector
	CPU      func() hostcpu.Features
	Now      func() time.Time
}

// Collect runs every detector once, sequentially.
func (c *Collector) Collect(ctx context.Context) Report {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	cpuFeatures := hostcpu.Detect
	if c.CPU != nil {
		cpuFeatures = c.CPU
	}

	r := Report{
		Version:     c.Version,
		GeneratedAt: now().UTC(),
		Probe:       c.Prober.Probe(ctx),
		CPU:         cpuFeatures(),
	}
	r.Macros = probe.Macros(r.Probe)

	if c.GPU != nil {
		r.GPU = c.GPU.DetectGPUs()
	}
	if c.Compiler != nil {
		r.NVCC = c.Compiler.DetectNVCC(ctx)
	}

	return r
}

// Save writes the report as indented JSON, atomically
func Save(r Report, path string, logger *logging.Logger) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := fsutil.EnsureParentDir(path); err != nil {
		return err
	}

	if err := fsutil.AtomicWriteFile(path, data, fsutil.DefaultFilePermissions, logger); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	logger.Info("report.saved", "Probe report saved", map[string]interface{}{
		"filepath": path,
	})

	return nil
}
