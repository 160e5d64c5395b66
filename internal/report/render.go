package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mxprobe/internal/gpu"
	"mxprobe/internal/probe"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd700")).MarginTop(1)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#87d787"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#87d7af"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff")).PaddingLeft(3)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")).PaddingLeft(3)
)

// Render formats the report for a terminal
func Render(r Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("MXNet build capabilities (platform %s)", r.Probe.Platform)))
	b.WriteString("\n")
	b.WriteString(renderFeature(r.Probe.CUDA))
	b.WriteString(renderFeature(r.Probe.MKLDNN))

	flags, _ := probe.BuildFlags(r.Probe, probe.FormatCFlags)
	if flags == "" {
		flags = "(none)"
	}
	b.WriteString(labelStyle.Render("Compile flags: ") + flags + "\n")

	b.WriteString(sectionStyle.Render("Build host"))
	b.WriteString("\n")
	b.WriteString(renderGPU(r.GPU))
	b.WriteString(renderNVCC(r.NVCC))

	cpu := strings.Join(r.CPU.Names(), " ")
	if cpu == "" {
		cpu = "no tracked extensions"
	}
	b.WriteString(labelStyle.Render("  CPU: ") + r.CPU.Architecture + " " + cpu + "\n")

	return b.String()
}

func renderFeature(f probe.FeatureResult) string {
	var b strings.Builder

	if f.Enabled {
		b.WriteString(okStyle.Render(fmt.Sprintf("✓ %s: enabled", f.Feature)))
	} else {
		b.WriteString(failStyle.Render(fmt.Sprintf("❌ %s: not detected", f.Feature)))
	}
	b.WriteString(fmt.Sprintf(" (%s)\n", f.Stage))

	for _, reason := range f.Inconclusive {
		b.WriteString(dimStyle.Render(reason))
		b.WriteString("\n")
	}
	if f.Stage == probe.StageEnvOverride {
		b.WriteString(hintStyle.Render("💡 Hint: set MXNET_USE_MKLDNN=1 if your MXNet build includes MKLDNN"))
		b.WriteString("\n")
	}

	return b.String()
}

func renderGPU(g gpu.GPUReport) string {
	if !g.NVMLOk {
		return labelStyle.Render("  GPUs: ") + "unavailable (" + g.ErrorMessage + ")\n"
	}

	var b strings.Builder
	b.WriteString(labelStyle.Render("  GPUs: "))
	b.WriteString(fmt.Sprintf("%d (driver %s, CUDA %s)\n", len(g.GPUs), g.DriverVersion, gpu.FormatCUDAVersion(g.CUDAVersion)))
	for _, info := range g.GPUs {
		line := fmt.Sprintf("    GPU %d: %s, %d MB", info.Index, info.Name, info.MemoryMB)
		if info.ComputeCapability != "" {
			line += ", sm " + info.ComputeCapability
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func renderNVCC(c gpu.CompilerReport) string {
	if !c.Available {
		msg := c.ErrorMessage
		if msg == "" {
			msg = "not checked"
		}
		return labelStyle.Render("  nvcc: ") + msg + "\n"
	}
	release := c.Release
	if release == "" {
		release = "unknown release"
	}
	return labelStyle.Render("  nvcc: ") + release + " (" + c.Path + ")\n"
}
