// Package probe decides whether the installed MXNet library was built with
// CUDA and/or MKLDNN. Every detection stage returns an Outcome; the prober
// chains them introspection → binary inspection → environment override →
// default, and always ends with a plain boolean.
package probe

import "errors"

// Feature names a build feature as the introspection interface knows it and
// the substring that marks it in a linked library's dynamic section.
type Feature struct {
	Name   string
	Marker string
}

var (
	// CUDA is GPU acceleration through the CUDA runtime.
	CUDA = Feature{Name: "CUDA", Marker: "cuda"}
	// MKLDNN is the oneDNN/MKL-DNN CPU primitives library.
	MKLDNN = Feature{Name: "MKLDNN", Marker: "mkldnn"}
)

// Stage identifies which step of the chain produced an answer.
type Stage string

const (
	// StageIntrospection is mxnet.runtime.Features().
	StageIntrospection Stage = "introspection"
	// StageBinaryInspection is readelf over the discovered libraries.
	StageBinaryInspection Stage = "binary-inspection"
	// StageEnvOverride is the MXNET_USE_MKLDNN variable.
	StageEnvOverride Stage = "env-override"
	// StageDefault is the conservative false.
	StageDefault Stage = "default"
)

// Sentinel errors for inconclusive stages.
var (
	ErrNoLibraries       = errors.New("library discovery returned no paths")
	ErrInterpreterOutput = errors.New("unexpected interpreter output")
	ErrUnknownFormat     = errors.New("unknown flag format")
)

// Outcome is the result of a single detection stage. Enabled is meaningful
// only when Conclusive is true; Err explains an inconclusive stage.
type Outcome struct {
	Enabled    bool
	Conclusive bool
	Stage      Stage
	Err        error
	Libraries  []string
}

func conclusive(stage Stage, enabled bool) Outcome {
	return Outcome{Enabled: enabled, Conclusive: true, Stage: stage}
}

func inconclusive(stage Stage, err error) Outcome {
	return Outcome{Stage: stage, Err: err}
}

// FeatureResult is the final decision for one feature plus how it was reached.
type FeatureResult struct {
	Feature      string   `json:"feature"`
	Enabled      bool     `json:"enabled"`
	Stage        Stage    `json:"stage"`
	Libraries    []string `json:"libraries,omitempty"`
	Inconclusive []string `json:"inconclusive,omitempty"`
	HintShown    bool     `json:"hint_shown,omitempty"`
}

// Report holds both decisions from one Probe call.
type Report struct {
	Platform string        `json:"platform"`
	CUDA     FeatureResult `json:"cuda"`
	MKLDNN   FeatureResult `json:"mkldnn"`
}
