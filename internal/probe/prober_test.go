package probe

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"mxprobe/internal/logging"
)

func newTestProber(features *fakeFeatures, locator *fakeLocator, reader *fakeReader, platform string, useMKLDNN bool) (*Prober, *bytes.Buffer) {
	var hints bytes.Buffer
	logger := logging.NewWriterLogger(logging.LevelError, logging.FormatJSON, &bytes.Buffer{})
	p := New(features, locator, reader, Options{
		Platform:  platform,
		UseMKLDNN: useMKLDNN,
		Hints:     &hints,
	}, logger)
	return p, &hints
}

func TestCUDA_IntrospectionTrueSkipsInspection(t *testing.T) {
	features := &fakeFeatures{enabled: map[string]bool{"CUDA": true}}
	locator := &fakeLocator{paths: []string{"/lib/libmxnet.so"}}
	reader := &fakeReader{}
	p, _ := newTestProber(features, locator, reader, "linux", false)

	if !p.CUDA(context.Background()) {
		t.Error("CUDA() = false, want true")
	}
	if locator.calls != 0 || len(reader.calls) != 0 {
		t.Errorf("expected no binary inspection, got %d discovery and %d dump calls", locator.calls, len(reader.calls))
	}
}

func TestCUDA_IntrospectionFalseIsFinal(t *testing.T) {
	features := &fakeFeatures{enabled: map[string]bool{"CUDA": false}}
	locator := &fakeLocator{paths: []string{"/lib/libmxnet.so"}}
	reader := &fakeReader{dumps: map[string]string{"/lib/libmxnet.so": dumpCUDA}}
	p, _ := newTestProber(features, locator, reader, "linux", false)

	if p.CUDA(context.Background()) {
		t.Error("CUDA() = true, want false from introspection")
	}
	if locator.calls != 0 {
		t.Errorf("expected no fallback after successful introspection, got %d discovery calls", locator.calls)
	}
}

func TestCUDA_NonLinuxSkipsInspection(t *testing.T) {
	for _, platform := range []string{"darwin", "windows", "freebsd"} {
		t.Run(platform, func(t *testing.T) {
			features := &fakeFeatures{err: errNoModule}
			locator := &fakeLocator{paths: []string{"/lib/libmxnet.so"}}
			reader := &fakeReader{dumps: map[string]string{"/lib/libmxnet.so": dumpCUDA}}
			p, hints := newTestProber(features, locator, reader, platform, true)

			if p.CUDA(context.Background()) {
				t.Error("CUDA() = true, want false")
			}
			if locator.calls != 0 || len(reader.calls) != 0 {
				t.Error("expected no binary inspection on non-linux platform")
			}
			if hints.Len() != 0 {
				t.Errorf("CUDA probe must not print hints, got %q", hints.String())
			}
		})
	}
}

func TestCUDA_BinaryInspection(t *testing.T) {
	tests := []struct {
		name      string
		paths     []string
		dumps     map[string]string
		want      bool
		wantDumps int
	}{
		{
			name:      "no library links cuda",
			paths:     []string{"/a/libmxnet.so", "/b/libmxnet.so"},
			dumps:     map[string]string{"/a/libmxnet.so": dumpPlain, "/b/libmxnet.so": dumpMKLDNN},
			want:      false,
			wantDumps: 2,
		},
		{
			name:      "second library links cuda",
			paths:     []string{"/a/libmxnet.so", "/b/libmxnet.so"},
			dumps:     map[string]string{"/a/libmxnet.so": dumpPlain, "/b/libmxnet.so": dumpCUDA},
			want:      true,
			wantDumps: 2,
		},
		{
			name:      "first match stops the scan",
			paths:     []string{"/a/libmxnet.so", "/b/libmxnet.so"},
			dumps:     map[string]string{"/a/libmxnet.so": dumpCUDA, "/b/libmxnet.so": dumpPlain},
			want:      true,
			wantDumps: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := &fakeFeatures{err: errNoModule}
			locator := &fakeLocator{paths: tt.paths}
			reader := &fakeReader{dumps: tt.dumps}
			p, _ := newTestProber(features, locator, reader, "linux", false)

			if got := p.CUDA(context.Background()); got != tt.want {
				t.Errorf("CUDA() = %v, want %v", got, tt.want)
			}
			if len(reader.calls) != tt.wantDumps {
				t.Errorf("dump calls = %d, want %d", len(reader.calls), tt.wantDumps)
			}
		})
	}
}

func TestCUDA_FallbackFailuresAreFalse(t *testing.T) {
	tests := []struct {
		name    string
		locator *fakeLocator
		reader  *fakeReader
	}{
		{"discovery fails", &fakeLocator{err: errors.New("No module named 'mxnet'")}, &fakeReader{}},
		{"no libraries", &fakeLocator{paths: nil}, &fakeReader{}},
		{
			"readelf missing",
			&fakeLocator{paths: []string{"/a/libmxnet.so"}},
			&fakeReader{errs: map[string]error{"/a/libmxnet.so": errors.New(`exec: "readelf": executable file not found in $PATH`)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProber(&fakeFeatures{err: errNoModule}, tt.locator, tt.reader, "linux", true)

			report := p.Probe(context.Background())
			if report.CUDA.Enabled {
				t.Error("CUDA enabled = true, want false")
			}
			if report.CUDA.Stage != StageDefault {
				t.Errorf("CUDA stage = %s, want %s", report.CUDA.Stage, StageDefault)
			}
			if len(report.CUDA.Inconclusive) != 2 {
				t.Errorf("expected two inconclusive reasons, got %v", report.CUDA.Inconclusive)
			}
		})
	}
}

func TestCUDA_DumpErrorAfterCleanLibraryIsInconclusive(t *testing.T) {
	locator := &fakeLocator{paths: []string{"/a/libmxnet.so", "/b/libmxnet.so"}}
	reader := &fakeReader{
		dumps: map[string]string{"/a/libmxnet.so": dumpPlain},
		errs:  map[string]error{"/b/libmxnet.so": errors.New("exit status 1")},
	}
	p, _ := newTestProber(&fakeFeatures{err: errNoModule}, locator, reader, "linux", false)

	out := p.InspectBinaries(context.Background(), CUDA)
	if out.Conclusive {
		t.Error("expected inconclusive outcome when a dump fails")
	}
	if len(out.Libraries) != 1 || out.Libraries[0] != "/a/libmxnet.so" {
		t.Errorf("Libraries = %v, want only the inspected one", out.Libraries)
	}
}

func TestMKLDNN_IntrospectionTrue(t *testing.T) {
	features := &fakeFeatures{enabled: map[string]bool{"MKLDNN": true}}
	locator := &fakeLocator{}
	reader := &fakeReader{}
	p, hints := newTestProber(features, locator, reader, "linux", false)

	if !p.MKLDNN(context.Background()) {
		t.Error("MKLDNN() = false, want true")
	}
	if locator.calls != 0 || len(reader.calls) != 0 {
		t.Error("expected no binary inspection")
	}
	if hints.Len() != 0 {
		t.Errorf("expected no hint, got %q", hints.String())
	}
}

func TestMKLDNN_NonLinuxUsesOverride(t *testing.T) {
	tests := []struct {
		name      string
		useMKLDNN bool
	}{
		{"override set", true},
		{"override unset", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locator := &fakeLocator{paths: []string{"/a/libmxnet.so"}}
			reader := &fakeReader{dumps: map[string]string{"/a/libmxnet.so": dumpMKLDNN}}
			p, hints := newTestProber(&fakeFeatures{err: errNoModule}, locator, reader, "darwin", tt.useMKLDNN)

			report := p.Probe(context.Background())
			if report.MKLDNN.Enabled != tt.useMKLDNN {
				t.Errorf("MKLDNN enabled = %v, want %v", report.MKLDNN.Enabled, tt.useMKLDNN)
			}
			if report.MKLDNN.Stage != StageEnvOverride {
				t.Errorf("stage = %s, want %s", report.MKLDNN.Stage, StageEnvOverride)
			}
			if locator.calls != 0 {
				t.Error("expected binary inspection to be skipped on darwin")
			}
			if hintCount(hints.String()) != 1 || !report.MKLDNN.HintShown {
				t.Errorf("expected exactly one hint, got %q", hints.String())
			}
		})
	}
}

func TestMKLDNN_LinuxBinaryInspection(t *testing.T) {
	locator := &fakeLocator{paths: []string{"/a/libmxnet.so"}}
	reader := &fakeReader{dumps: map[string]string{"/a/libmxnet.so": dumpMKLDNN}}
	p, hints := newTestProber(&fakeFeatures{err: errNoModule}, locator, reader, "linux", false)

	report := p.Probe(context.Background())
	if !report.MKLDNN.Enabled {
		t.Error("MKLDNN enabled = false, want true from readelf")
	}
	if report.MKLDNN.Stage != StageBinaryInspection {
		t.Errorf("stage = %s, want %s", report.MKLDNN.Stage, StageBinaryInspection)
	}
	if hints.Len() != 0 {
		t.Errorf("expected no hint when readelf answers, got %q", hints.String())
	}
	if report.CUDA.Enabled {
		t.Error("CUDA enabled = true, want false for an MKLDNN-only library")
	}
}

func TestMKLDNN_LinuxInspectionFailureUsesOverride(t *testing.T) {
	tests := []struct {
		name      string
		useMKLDNN bool
	}{
		{"override unset", false},
		{"override set", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locator := &fakeLocator{err: errors.New("Cannot find the MXNet library")}
			p, hints := newTestProber(&fakeFeatures{err: errNoModule}, locator, &fakeReader{}, "linux", tt.useMKLDNN)

			if got := p.MKLDNN(context.Background()); got != tt.useMKLDNN {
				t.Errorf("MKLDNN() = %v, want %v", got, tt.useMKLDNN)
			}
			if hintCount(hints.String()) != 1 {
				t.Errorf("expected one hint, got %q", hints.String())
			}
		})
	}
}

func TestProbe_DarwinWithoutMXNet(t *testing.T) {
	p, hints := newTestProber(&fakeFeatures{err: errNoModule}, &fakeLocator{}, &fakeReader{}, "darwin", false)

	if p.CUDA(context.Background()) {
		t.Error("CUDA() = true, want false")
	}
	if p.MKLDNN(context.Background()) {
		t.Error("MKLDNN() = true, want false")
	}
	if hintCount(hints.String()) != 1 {
		t.Errorf("expected the MKLDNN hint once, got %q", hints.String())
	}
}

func TestProbe_ReportCarriesPlatform(t *testing.T) {
	features := &fakeFeatures{enabled: map[string]bool{"CUDA": true, "MKLDNN": true}}
	p, _ := newTestProber(features, &fakeLocator{}, &fakeReader{}, "linux", false)

	report := p.Probe(context.Background())
	if report.Platform != "linux" {
		t.Errorf("Platform = %s, want linux", report.Platform)
	}
	if !report.CUDA.Enabled || !report.MKLDNN.Enabled {
		t.Errorf("expected both features enabled, got %+v", report)
	}
	if report.CUDA.Stage != StageIntrospection || report.MKLDNN.Stage != StageIntrospection {
		t.Errorf("expected introspection stages, got %s / %s", report.CUDA.Stage, report.MKLDNN.Stage)
	}
	if len(features.calls) != 2 || features.calls[0] != "CUDA" || features.calls[1] != "MKLDNN" {
		t.Errorf("feature calls = %v, want [CUDA MKLDNN]", features.calls)
	}
}

func TestProbe_NilLoggerIsSafe(t *testing.T) {
	var hints bytes.Buffer
	p := New(&fakeFeatures{err: errNoModule}, &fakeLocator{err: errors.New("boom")}, &fakeReader{}, Options{
		Platform: "linux",
		Hints:    &hints,
	}, nil)

	_ = p.Probe(context.Background())
}

func TestIsLinux(t *testing.T) {
	tests := map[string]bool{
		"linux":   true,
		"linux2":  true,
		"darwin":  false,
		"windows": false,
		"":        false,
	}
	for platform, want := range tests {
		if got := IsLinux(platform); got != want {
			t.Errorf("IsLinux(%q) = %v, want %v", platform, got, want)
		}
	}
}
