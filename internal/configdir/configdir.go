package configdir

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigDir = "/etc/mxprobe"
	// EnvConfigDir overrides the system configuration directory.
	EnvConfigDir = "MXPROBE_CONFIG_DIR"
)

// ConfigDir resolves the system configuration directory respecting overrides
func ConfigDir() string {
	if env := os.Getenv(EnvConfigDir); env != "" {
		if abs, err := filepath.Abs(env); err == nil {
			return abs
		}
	}
	return defaultConfigDir
}
