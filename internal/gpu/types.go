package gpu

import "fmt"

// GPUInfo represents information about a single GPU on the build host
type GPUInfo struct {
	Index             int    `json:"index"`
	Name              string `json:"name"`
	UUID              string `json:"uuid"`
	MemoryMB          uint64 `json:"memory_mb"`
	ComputeCapability string `json:"compute_capability,omitempty"`
}

// GPUReport is the NVML view of the build host
type GPUReport struct {
	DriverVersion string    `json:"driver_version"`
	CUDAVersion   int       `json:"cuda_version"`
	NVMLOk        bool      `json:"nvml_ok"`
	GPUs          []GPUInfo `json:"gpus"`
	ErrorMessage  string    `json:"error_message,omitempty"`
}

// CompilerReport describes the CUDA compiler found on the build host
type CompilerReport struct {
	Available    bool   `json:"available"`
	Path         string `json:"path,omitempty"`
	Release      string `json:"release,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// FormatCUDAVersion turns NVML's encoded driver version (12020) into "12.2".
func FormatCUDAVersion(v int) string {
	if v <= 0 {
		return ""
	}
	return fmt.Sprintf("%d.%d", v/1000, (v%1000)/10)
}
