//go:build cuda

package gpu

import (
	"bytes"
	"testing"

	"mxprobe/internal/logging"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

const (
	mockDriverVersion = "535.104.05"
)

func quietLogger() *logging.Logger {
	return logging.NewWriterLogger(logging.LevelError, logging.FormatJSON, &bytes.Buffer{})
}

func TestDetector_DetectGPUs_Success(t *testing.T) {
	mockNVML := NewMockNVML()
	mockNVML.DriverVersion = mockDriverVersion
	mockNVML.CudaVersion = 12020
	mockNVML.DeviceCount = 2
	mockNVML.Devices = []MockDevice{
		{
			Name:             "NVIDIA A100-SXM4-40GB",
			NameReturn:       nvml.SUCCESS,
			UUID:             "GPU-12345678-1234-1234-1234-123456789012",
			UUIDReturn:       nvml.SUCCESS,
			MemoryTotal:      40 * 1024 * 1024 * 1024,
			MemoryInfoReturn: nvml.SUCCESS,
			CCMajor:          8,
			CCMinor:          0,
			CCReturn:         nvml.SUCCESS,
		},
		{
			Name:             "Tesla V100-SXM2-16GB",
			NameReturn:       nvml.SUCCESS,
			UUID:             "GPU-87654321-4321-4321-4321-210987654321",
			UUIDReturn:       nvml.SUCCESS,
			MemoryTotal:      16 * 1024 * 1024 * 1024,
			MemoryInfoReturn: nvml.SUCCESS,
			CCReturn:         nvml.ERROR_NOT_SUPPORTED,
		},
	}

	report := NewDetectorWithNVML(mockNVML, quietLogger()).DetectGPUs()

	if !report.NVMLOk {
		t.Error("Expected NVML to be OK")
	}
	if report.DriverVersion != mockDriverVersion {
		t.Errorf("Expected driver version %s, got: %s", mockDriverVersion, report.DriverVersion)
	}
	if report.CUDAVersion != 12020 {
		t.Errorf("Expected CUDA version 12020, got: %d", report.CUDAVersion)
	}
	if len(report.GPUs) != 2 {
		t.Fatalf("Expected 2 GPUs, got: %d", len(report.GPUs))
	}
	if report.GPUs[0].MemoryMB != 40*1024 {
		t.Errorf("Expected GPU 0 memory 40960 MB, got: %d", report.GPUs[0].MemoryMB)
	}
	if report.GPUs[0].ComputeCapability != "8.0" {
		t.Errorf("Expected compute capability 8.0, got: %s", report.GPUs[0].ComputeCapability)
	}
	if report.GPUs[1].ComputeCapability != "" {
		t.Errorf("Expected empty compute capability when unsupported, got: %s", report.GPUs[1].ComputeCapability)
	}
}

func TestDetector_DetectGPUs_InitFailed(t *testing.T) {
	mockNVML := NewMockNVML()
	mockNVML.InitReturn = nvml.ERROR_LIBRARY_NOT_FOUND

	report := NewDetectorWithNVML(mockNVML, quietLogger()).DetectGPUs()

	if report.NVMLOk {
		t.Error("Expected NVML to be not OK when init fails")
	}
	if report.ErrorMessage == "" {
		t.Error("Expected error message when NVML init fails")
	}
	if len(report.GPUs) != 0 {
		t.Error("Expected no GPUs when NVML init fails")
	}
}

func TestDetector_DetectGPUs_NoDevices(t *testing.T) {
	mockNVML := NewMockNVML()
	mockNVML.DriverVersion = mockDriverVersion
	mockNVML.CudaVersion = 12020

	report := NewDetectorWithNVML(mockNVML, quietLogger()).DetectGPUs()

	if !report.NVMLOk {
		t.Error("Expected NVML to be OK even with no devices")
	}
	if len(report.GPUs) != 0 {
		t.Errorf("Expected 0 GPUs, got: %d", len(report.GPUs))
	}
}

func TestDetector_DetectGPUs_DeviceCountFailed(t *testing.T) {
	mockNVML := NewMockNVML()
	mockNVML.DeviceCountReturn = nvml.ERROR_UNKNOWN

	report := NewDetectorWithNVML(mockNVML, quietLogger()).DetectGPUs()

	if !report.NVMLOk {
		t.Error("Expected NVML to be OK (init succeeded)")
	}
	if report.ErrorMessage == "" {
		t.Error("Expected error message when device count fails")
	}
}
