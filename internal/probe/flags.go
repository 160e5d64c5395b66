package probe

import (
	"fmt"
	"strings"
)

// Flag output formats understood by BuildFlags.
const (
	FormatCFlags = "cflags"
	FormatEnv    = "env"
	FormatCMake  = "cmake"
)

const (
	macroCUDA   = "HAVE_CUDA"
	macroMKLDNN = "MXNET_USE_MKLDNN"
)

// Macros returns the preprocessor macros a build against this MXNet needs.
func Macros(r Report) []string {
	var macros []string
	if r.CUDA.Enabled {
		macros = append(macros, macroCUDA)
	}
	if r.MKLDNN.Enabled {
		macros = append(macros, macroMKLDNN)
	}
	return macros
}

// BuildFlags renders Macros(r) for a build system. An empty string means no
// optional feature is enabled.
func BuildFlags(r Report, format string) (string, error) {
	macros := Macros(r)

	parts := make([]string, 0, len(macros))
	switch strings.ToLower(format) {
	case FormatCFlags, "":
		for _, m := range macros {
			parts = append(parts, "-D"+m+"=1")
		}
		return strings.Join(parts, " "), nil
	case FormatEnv:
		for _, m := range macros {
			parts = append(parts, m+"=1")
		}
		return strings.Join(parts, "\n"), nil
	case FormatCMake:
		for _, m := range macros {
			parts = append(parts, "-D"+m+"=ON")
		}
		return strings.Join(parts, " "), nil
	default:
		return "", fmt.Errorf("%w: %q (want %s, %s or %s)", ErrUnknownFormat, format, FormatCFlags, FormatEnv, FormatCMake)
	}
}
