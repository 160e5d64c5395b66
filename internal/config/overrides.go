package config

import "strings"

const (
	// EnvUseMKLDNN forces the MKLDNN answer when detection is inconclusive.
	EnvUseMKLDNN = "MXNET_USE_MKLDNN"
	// EnvPlatform replaces the platform identifier (runtime.GOOS by default).
	EnvPlatform = "MXPROBE_PLATFORM"
)

// EnvVars lists every environment variable the probe reads, with its effect.
var EnvVars = map[string]string{
	EnvUseMKLDNN: "set to 1 when MXNet was built with MKLDNN and detection is inconclusive",
	EnvPlatform:  "override the platform identifier used to pick detection strategies",
}

// Overrides are environment inputs read once at process start and passed
// explicitly to the prober.
type Overrides struct {
	UseMKLDNN bool
	Platform  string
}

// LoadOverrides reads the override variables through lookup (os.LookupEnv in
// production). Only the exact value "1" enables MKLDNN.
func LoadOverrides(lookup func(string) (string, bool)) Overrides {
	var o Overrides
	if v, ok := lookup(EnvUseMKLDNN); ok {
		o.UseMKLDNN = v == "1"
	}
	if v, ok := lookup(EnvPlatform); ok {
		o.Platform = strings.TrimSpace(v)
	}
	return o
}

// ResolvePlatform picks the platform identifier: environment override, then
// config, then the supplied runtime default.
func (c Config) ResolvePlatform(o Overrides, runtimeDefault string) string {
	if o.Platform != "" {
		return o.Platform
	}
	if c.Platform != "" {
		return c.Platform
	}
	return runtimeDefault
}
