package probe

import (
	"context"
	"errors"
	"strings"
)

var errNoModule = errors.New("ModuleNotFoundError: No module named 'mxnet.runtime'")

type fakeFeatures struct {
	enabled map[string]bool
	err     error
	calls   []string
}

func (f *fakeFeatures) IsEnabled(_ context.Context, name string) (bool, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return false, f.err
	}
	return f.enabled[name], nil
}

type fakeLocator struct {
	paths []string
	err   error
	calls int
}

func (f *fakeLocator) FindLibPaths(context.Context) ([]string, error) {
	f.calls++
	return f.paths, f.err
}

type fakeReader struct {
	dumps map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeReader) DynamicSection(_ context.Context, path string) (string, error) {
	f.calls = append(f.calls, path)
	if err := f.errs[path]; err != nil {
		return "", err
	}
	return f.dumps[path], nil
}

type runCall struct {
	name string
	args []string
}

type fakeRunner struct {
	out   []byte
	err   error
	calls []runCall
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, runCall{name: name, args: args})
	return f.out, f.err
}

const (
	dumpPlain = ` 0x0000000000000001 (NEEDED)             Shared library: [libgomp.so.1]
 0x0000000000000001 (NEEDED)             Shared library: [libc.so.6]`
	dumpCUDA = ` 0x0000000000000001 (NEEDED)             Shared library: [libcudart.so.10.1]
 0x0000000000000001 (NEEDED)             Shared library: [libcublas.so.10]`
	dumpMKLDNN = ` 0x0000000000000001 (NEEDED)             Shared library: [libmkldnn.so.0]
 0x0000000000000001 (NEEDED)             Shared library: [libc.so.6]`
)

func hintCount(s string) int {
	return strings.Count(s, MKLDNNHint)
}
