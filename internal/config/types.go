package config

// Config represents the complete mxprobe configuration
type Config struct {
	Python         string        `yaml:"python"`
	ReadElf        string        `yaml:"readelf"`
	NVCC           string        `yaml:"nvcc"`
	Platform       string        `yaml:"platform"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	ReportPath     string        `yaml:"report_path"`
	Logging        LoggingConfig `yaml:"logging"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Path + ": " + e.Message
}
