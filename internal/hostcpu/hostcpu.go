// Package hostcpu reports the instruction-set extensions of the build host.
package hostcpu

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Features lists the CPU extensions relevant to MKLDNN kernels.
type Features struct {
	Architecture string `json:"architecture"`
	HasSSE42     bool   `json:"has_sse42"`
	HasAVX2      bool   `json:"has_avx2"`
	HasAVX512F   bool   `json:"has_avx512f"`
	HasFMA       bool   `json:"has_fma"`
	HasASIMD     bool   `json:"has_asimd"`
}

// Detect reads the extensions of the current CPU.
func Detect() Features {
	return Features{
		Architecture: runtime.GOARCH,
		HasSSE42:     cpu.X86.HasSSE42,
		HasAVX2:      cpu.X86.HasAVX2,
		HasAVX512F:   cpu.X86.HasAVX512F,
		HasFMA:       cpu.X86.HasFMA,
		HasASIMD:     cpu.ARM64.HasASIMD,
	}
}

// Names returns the enabled extensions in a stable order.
func (f Features) Names() []string {
	var names []string
	for _, e := range []struct {
		name string
		on   bool
	}{
		{"sse4.2", f.HasSSE42},
		{"avx2", f.HasAVX2},
		{"avx512f", f.HasAVX512F},
		{"fma", f.HasFMA},
		{"asimd", f.HasASIMD},
	} {
		if e.on {
			names = append(names, e.name)
		}
	}
	return names
}
