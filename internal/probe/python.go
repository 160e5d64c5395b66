package probe

import (
	"context"
	"encoding/json"
	"fmt"
)

// FeatureQuerier is the library's own feature-flag lookup.
type FeatureQuerier interface {
	IsEnabled(ctx context.Context, name string) (bool, error)
}

// LibraryLocator returns the paths of the library's compiled shared objects.
type LibraryLocator interface {
	FindLibPaths(ctx context.Context) ([]string, error)
}

const featuresScript = `import sys
from mxnet import runtime
sys.stdout.write("\n1\n" if runtime.Features().is_enabled(sys.argv[1]) else "\n0\n")
`

const libInfoScript = `import json, sys
import mxnet as mx
sys.stdout.write("\n" + json.dumps([str(p) for p in mx.libinfo.find_lib_path()]) + "\n")
`

// PythonFeatures asks mxnet.runtime.Features() through a Python interpreter.
// Older MXNet releases lack the runtime module; that surfaces as an error.
type PythonFeatures struct {
	Runner      Runner
	Interpreter string
}

// IsEnabled reports whether MXNet says feature name is enabled.
func (p PythonFeatures) IsEnabled(ctx context.Context, name string) (bool, error) {
	out, err := p.Runner.Output(ctx, p.Interpreter, "-c", featuresScript, name)
	if err != nil {
		return false, fmt.Errorf("query feature %s: %w", name, err)
	}

	// Importing mxnet may print banners; the answer is the last line.
	switch lastLine(string(out)) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("query feature %s: %w: %q", name, ErrInterpreterOutput, lastLine(string(out)))
	}
}

// PythonLibInfo calls mxnet.libinfo.find_lib_path() through a Python interpreter.
type PythonLibInfo struct {
	Runner      Runner
	Interpreter string
}

// FindLibPaths returns the discovered library paths in MXNet's order.
func (p PythonLibInfo) FindLibPaths(ctx context.Context) ([]string, error) {
	out, err := p.Runner.Output(ctx, p.Interpreter, "-c", libInfoScript)
	if err != nil {
		return nil, fmt.Errorf("find library paths: %w", err)
	}

	return ParseLibPaths(out)
}

// ParseLibPaths decodes the JSON list printed by the discovery script. Only
// the last output line is considered.
func ParseLibPaths(out []byte) ([]string, error) {
	var paths []string
	if err := json.Unmarshal([]byte(lastLine(string(out))), &paths); err != nil {
		return nil, fmt.Errorf("parse library paths: %w: %v", ErrInterpreterOutput, err)
	}
	if len(paths) == 0 {
		return nil, ErrNoLibraries
	}
	return paths, nil
}
