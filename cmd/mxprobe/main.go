package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"mxprobe/internal/config"
	"mxprobe/internal/gpu"
	"mxprobe/internal/hostcpu"
	"mxprobe/internal/logging"
	"mxprobe/internal/probe"
	"mxprobe/internal/report"
	"mxprobe/internal/tui"
)

const version = "0.1.0-dev"

// app bundles what every command needs: merged config, environment
// overrides and the logger built from them.
type app struct {
	cfg       config.Config
	overrides config.Overrides
	logger    *logging.Logger
}

func main() {
	if len(os.Args) <= 1 {
		runTUI()
		return
	}

	command := strings.ToLower(os.Args[1])
	if handler, ok := commandHandlers()[command]; ok {
		handler()
		return
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
	printUsage()
	os.Exit(1)
}

func commandHandlers() map[string]func() {
	return map[string]func(){
		"cuda":    func() { runSingle(probe.CUDA) },
		"mkldnn":  func() { runSingle(probe.MKLDNN) },
		"check":   runCheck,
		"flags":   runFlags,
		"config":  runConfig,
		"version": runVersion,
		"help":    printUsage,
		"--help":  printUsage,
		"-h":      printUsage,
	}
}

// newApp loads configuration; a broken config never stops detection, it
// only falls back to defaults with a warning.
func newApp() *app {
	overrides := config.LoadOverrides(os.LookupEnv)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load configuration, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logger := logging.NewLogger(level)
	if cfg.Logging.File != "" {
		fileLogger, ferr := logging.NewFileLogger(level, cfg.Logging.File)
		if ferr != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (logging to stderr)\n", ferr)
		} else {
			logger = fileLogger
		}
	}
	logger.SetFormat(logging.Format(cfg.Logging.Format))

	return &app{cfg: cfg, overrides: overrides, logger: logger}
}

func (a *app) close() {
	if err := a.logger.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
	}
}

func (a *app) newProber(hints io.Writer) *probe.Prober {
	platform := a.cfg.ResolvePlatform(a.overrides, runtime.GOOS)
	return probe.NewSystem(a.cfg.Python, a.cfg.ReadElf, a.cfg.Timeout(), probe.Options{
		Platform:  platform,
		UseMKLDNN: a.overrides.UseMKLDNN,
		Hints:     hints,
	}, a.logger)
}

func (a *app) newCollector(hints io.Writer) *report.Collector {
	return &report.Collector{
		Version:  version,
		Prober:   a.newProber(hints),
		GPU:      gpu.NewDetector(a.logger),
		Compiler: gpu.NewCompilerDetector(a.cfg.NVCC, a.logger),
		CPU:      hostcpu.Detect,
	}
}

// runSingle prints 1 or 0 for one feature. The MKLDNN hint goes to stderr
// so stdout stays machine readable for build scripts.
func runSingle(f probe.Feature) {
	a := newApp()
	defer a.close()

	p := a.newProber(os.Stderr)
	ctx := context.Background()

	var enabled bool
	switch f {
	case probe.CUDA:
		enabled = p.CUDA(ctx)
	case probe.MKLDNN:
		enabled = p.MKLDNN(ctx)
	}

	if enabled {
		fmt.Println("1")
	} else {
		fmt.Println("0")
	}
}

// runCheck prints the full report and optionally saves it as JSON
func runCheck() {
	a := newApp()
	defer a.close()

	savePath := ""
	asJSON := false
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--json":
			asJSON = true
		case args[i] == "--save":
			savePath = a.cfg.ReportPath
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
				savePath = args[i+1]
				i++
			}
		case strings.HasPrefix(args[i], "--save="):
			savePath = strings.TrimPrefix(args[i], "--save=")
		default:
			fmt.Fprintf(os.Stderr, "Unknown check option: %s\n", args[i])
			os.Exit(1)
		}
	}

	hints := io.Writer(os.Stdout)
	if asJSON {
		hints = os.Stderr
	}
	r := a.newCollector(hints).Collect(context.Background())

	if asJSON {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode report: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	} else {
		fmt.Print(report.Render(r))
	}

	if savePath != "" {
		if err := report.Save(r, savePath, a.logger); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save report: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Detailed report saved to: %s\n", savePath)
	}
}

// runFlags prints the compile flags for the detected features
func runFlags() {
	a := newApp()
	defer a.close()

	format := probe.FormatCFlags
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--format" && i+1 < len(args):
			format = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--format="):
			format = strings.TrimPrefix(args[i], "--format=")
		default:
			fmt.Fprintf(os.Stderr, "Unknown flags option: %s\n", args[i])
			os.Exit(1)
		}
	}

	r := a.newProber(os.Stderr).Probe(context.Background())
	flags, err := probe.BuildFlags(r, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if flags != "" {
		fmt.Println(flags)
	}
}

func runConfig() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: mxprobe config <subcommand>\n")
		fmt.Fprintf(os.Stderr, "Subcommands:\n")
		fmt.Fprintf(os.Stderr, "  test [path]  Test configuration file for validity\n")
		os.Exit(1)
	}

	subcommand := strings.ToLower(os.Args[2])

	switch subcommand {
	case "test":
		runConfigTest()
	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", subcommand)
		fmt.Fprintf(os.Stderr, "Valid subcommands: test\n")
		os.Exit(1)
	}
}

// runConfigTest validates configuration file(s)
func runConfigTest() {
	logger := logging.NewLogger(logging.LevelInfo)

	var cfg config.Config
	var configErr error

	if len(os.Args) > 3 {
		path := os.Args[3]
		fmt.Printf("Testing configuration file: %s\n", path)
		cfg, configErr = config.LoadFrom(path)
	} else {
		fmt.Println("Testing configuration (system + user merge):")
		fmt.Printf("  System config: %s\n", config.SystemConfigPath())
		if userPath := config.UserConfigPath(); userPath != "" {
			fmt.Printf("  User config:   %s\n", userPath)
		}
		fmt.Println()

		cfg, configErr = config.Load()
	}

	if configErr != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration validation FAILED:\n")
		fmt.Fprintf(os.Stderr, "   %v\n", configErr)

		logger.Error("config.validation.error", "Configuration validation failed", map[string]interface{}{
			"error": configErr.Error(),
		})
		os.Exit(1)
	}

	overrides := config.LoadOverrides(os.LookupEnv)

	fmt.Println("✓ Configuration is VALID")
	fmt.Println()
	fmt.Println("Configuration Summary:")
	fmt.Printf("  Python:               %s\n", cfg.Python)
	fmt.Printf("  readelf:              %s\n", cfg.ReadElf)
	fmt.Printf("  nvcc:                 %s\n", cfg.NVCC)
	fmt.Printf("  Platform:             %s\n", cfg.ResolvePlatform(overrides, runtime.GOOS))
	fmt.Printf("  Timeout:              %s\n", describeTimeout(cfg))
	fmt.Printf("  Log Level:            %s\n", cfg.Logging.Level)
	fmt.Printf("  Log Format:           %s\n", cfg.Logging.Format)
	fmt.Printf("  %s:     %t\n", config.EnvUseMKLDNN, overrides.UseMKLDNN)
}

func describeTimeout(cfg config.Config) string {
	if cfg.Timeout() == 0 {
		return "none"
	}
	return cfg.Timeout().String()
}

func runTUI() {
	a := newApp()
	defer a.close()

	a.logger.Info("app.started", "Interactive probe started", map[string]interface{}{
		"version": version,
	})

	// The hint would corrupt the alternate screen; Render shows it instead.
	collector := a.newCollector(io.Discard)
	p := tea.NewProgram(tui.NewModel(collector.Collect, a.logger))

	if _, err := p.Run(); err != nil {
		a.logger.Error("app.error", "Application error", map[string]interface{}{
			"error": err.Error(),
		})
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

func runVersion() {
	fmt.Printf("mxprobe version %s\n", version)
}

func printUsage() {
	fmt.Printf(`mxprobe - MXNet build capability probe (version %s)

Usage:
  mxprobe                          Start the interactive view (default)
  mxprobe cuda                     Print 1 if MXNet was built with CUDA, else 0
  mxprobe mkldnn                   Print 1 if MXNet was built with MKLDNN, else 0
  mxprobe check [--json] [--save [path]]
                                   Full report: MXNet features, host GPUs, nvcc, CPU
  mxprobe flags [--format cflags|env|cmake]
                                   Print compile flags for the detected features
  mxprobe config test [path]       Test configuration file for validity
  mxprobe version                  Print version information
  mxprobe help                     Show this help message

Environment:
`, version)

	keys := make([]string, 0, len(config.EnvVars))
	for k := range config.EnvVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-32s %s\n", k, config.EnvVars[k])
	}
}
