package probe

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"mxprobe/internal/logging"
)

// MKLDNNHint is printed whenever the MKLDNN answer falls back to the
// environment override.
const MKLDNNHint = "INFO: Cannot detect if MKLDNN is enabled in MXNet. Please set MXNET_USE_MKLDNN=1 if MKLDNN is enabled in your MXNet build."

// Options are the explicit inputs of a probe run.
type Options struct {
	// Platform is the platform identifier, e.g. runtime.GOOS.
	Platform string
	// UseMKLDNN is the parsed MXNET_USE_MKLDNN override.
	UseMKLDNN bool
	// Hints receives the MKLDNN override hint; os.Stdout when nil.
	Hints io.Writer
}

// Prober answers "is CUDA compiled in?" and "is MKLDNN compiled in?" for the
// installed MXNet. It keeps no state between calls and is safe for
// concurrent use as long as its dependencies are.
type Prober struct {
	features FeatureQuerier
	locator  LibraryLocator
	reader   DynamicReader
	opts     Options
	logger   *logging.Logger
}

// New creates a prober from explicit stage implementations (for testing and
// embedding).
func New(features FeatureQuerier, locator LibraryLocator, reader DynamicReader, opts Options, logger *logging.Logger) *Prober {
	if opts.Hints == nil {
		opts.Hints = os.Stdout
	}
	return &Prober{
		features: features,
		locator:  locator,
		reader:   reader,
		opts:     opts,
		logger:   logger,
	}
}

// NewSystem wires the prober to a Python interpreter and readelf on PATH.
func NewSystem(python, readelf string, timeout time.Duration, opts Options, logger *logging.Logger) *Prober {
	runner := ExecRunner{Timeout: timeout}
	return New(
		PythonFeatures{Runner: runner, Interpreter: python},
		PythonLibInfo{Runner: runner, Interpreter: python},
		ReadElf{Runner: runner, Tool: readelf},
		opts,
		logger,
	)
}

// IsLinux reports whether platform selects the ELF inspection fallback.
func IsLinux(platform string) bool {
	return strings.Contains(platform, "linux")
}

// CUDA reports whether MXNet was built with CUDA. It never fails; anything
// inconclusive is false.
func (p *Prober) CUDA(ctx context.Context) bool {
	return p.detectCUDA(ctx).Enabled
}

// MKLDNN reports whether MXNet was built with MKLDNN. Inconclusive detection
// prints MKLDNNHint and falls back to the MXNET_USE_MKLDNN override.
func (p *Prober) MKLDNN(ctx context.Context) bool {
	return p.detectMKLDNN(ctx).Enabled
}

// Probe runs both detections and records how each answer was reached.
func (p *Prober) Probe(ctx context.Context) Report {
	return Report{
		Platform: p.opts.Platform,
		CUDA:     p.detectCUDA(ctx),
		MKLDNN:   p.detectMKLDNN(ctx),
	}
}

// Introspect asks the library's feature-flag interface about f.
func (p *Prober) Introspect(ctx context.Context, f Feature) Outcome {
	enabled, err := p.features.IsEnabled(ctx, f.Name)
	if err != nil {
		p.logger.Info("probe.introspect.unavailable", "Feature introspection unavailable", map[string]interface{}{
			"feature": f.Name,
			"error":   err.Error(),
		})
		return inconclusive(StageIntrospection, err)
	}

	p.logger.Debug("probe.introspect.ok", "Feature introspection answered", map[string]interface{}{
		"feature": f.Name,
		"enabled": enabled,
	})
	return conclusive(StageIntrospection, enabled)
}

// InspectBinaries looks for f's marker in the dynamic section of every
// discovered library. A discovery failure, an empty path list or a failed
// dump of any library makes the stage inconclusive.
func (p *Prober) InspectBinaries(ctx context.Context, f Feature) Outcome {
	paths, err := p.locator.FindLibPaths(ctx)
	if err != nil {
		p.logger.Info("probe.libinfo.failed", "Library discovery failed", map[string]interface{}{
			"feature": f.Name,
			"error":   err.Error(),
		})
		return inconclusive(StageBinaryInspection, err)
	}
	if len(paths) == 0 {
		return inconclusive(StageBinaryInspection, ErrNoLibraries)
	}

	inspected := make([]string, 0, len(paths))
	for _, path := range paths {
		dump, err := p.reader.DynamicSection(ctx, path)
		if err != nil {
			p.logger.Info("probe.elf.failed", "Dynamic section dump failed", map[string]interface{}{
				"feature": f.Name,
				"path":    path,
				"error":   err.Error(),
			})
			out := inconclusive(StageBinaryInspection, err)
			out.Libraries = inspected
			return out
		}
		inspected = append(inspected, path)

		if strings.Contains(dump, f.Marker) {
			p.logger.Debug("probe.elf.match", "Library links feature dependency", map[string]interface{}{
				"feature": f.Name,
				"path":    path,
				"marker":  f.Marker,
			})
			out := conclusive(StageBinaryInspection, true)
			out.Libraries = inspected
			return out
		}
	}

	out := conclusive(StageBinaryInspection, false)
	out.Libraries = inspected
	return out
}

func (p *Prober) detectCUDA(ctx context.Context) FeatureResult {
	res := FeatureResult{Feature: CUDA.Name}

	out := p.Introspect(ctx, CUDA)
	if out.Conclusive {
		return res.decide(out)
	}
	res.note(out)

	if !IsLinux(p.opts.Platform) {
		p.logger.Debug("probe.elf.skipped", "Binary inspection needs a linux platform", map[string]interface{}{
			"feature":  CUDA.Name,
			"platform": p.opts.Platform,
		})
		res.Stage = StageDefault
		return res
	}

	out = p.InspectBinaries(ctx, CUDA)
	res.Libraries = out.Libraries
	if out.Conclusive {
		return res.decide(out)
	}
	res.note(out)
	res.Stage = StageDefault
	return res
}

func (p *Prober) detectMKLDNN(ctx context.Context) FeatureResult {
	res := FeatureResult{Feature: MKLDNN.Name}

	out := p.Introspect(ctx, MKLDNN)
	if out.Conclusive {
		return res.decide(out)
	}
	res.note(out)

	// MKLDNN ships by default only in linux builds of MXNet, so other
	// platforms go straight to the override.
	if !IsLinux(p.opts.Platform) {
		return p.override(res)
	}

	out = p.InspectBinaries(ctx, MKLDNN)
	res.Libraries = out.Libraries
	if out.Conclusive {
		return res.decide(out)
	}
	res.note(out)
	return p.override(res)
}

func (p *Prober) override(res FeatureResult) FeatureResult {
	if _, err := fmt.Fprintln(p.opts.Hints, MKLDNNHint); err == nil {
		res.HintShown = true
	}
	res.Enabled = p.opts.UseMKLDNN
	res.Stage = StageEnvOverride
	p.logger.Info("probe.override.used", "Using MXNET_USE_MKLDNN override", map[string]interface{}{
		"feature": res.Feature,
		"enabled": res.Enabled,
	})
	return res
}

func (r FeatureResult) decide(out Outcome) FeatureResult {
	r.Enabled = out.Enabled
	r.Stage = out.Stage
	if out.Libraries != nil {
		r.Libraries = out.Libraries
	}
	return r
}

func (r *FeatureResult) note(out Outcome) {
	if out.Err == nil {
		return
	}
	r.Inconclusive = append(r.Inconclusive, fmt.Sprintf("%s: %v", out.Stage, out.Err))
}
