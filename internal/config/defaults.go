package config

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Python:         "python3",
		ReadElf:        "readelf",
		NVCC:           "nvcc",
		Platform:       "",
		TimeoutSeconds: 0, // wait for subprocesses indefinitely
		ReportPath:     "/tmp/mxprobe_report.json",
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "json",
		},
	}
}
