package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/complexdatacollective/pedigree/pkg/pipeline"
)

// out receives all user-facing output; tests swap it for a buffer.
var out io.Writer = os.Stdout

var (
	colorAccent = lipgloss.Color("36")  // teal
	colorOK     = lipgloss.Color("35")  // green
	colorWarn   = lipgloss.Color("220") // amber
	colorFail   = lipgloss.Color("167") // soft red
	colorLink   = lipgloss.Color("75")  // light blue
	colorValue  = lipgloss.Color("255")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
)

var (
	styleMuted = lipgloss.NewStyle().Foreground(colorMuted)
	styleValue = lipgloss.NewStyle().Foreground(colorValue)
	styleLabel = lipgloss.NewStyle().Foreground(colorLabel).Width(12)
	styleLink  = lipgloss.NewStyle().Foreground(colorLink)
	styleFrame = lipgloss.NewStyle().Foreground(colorAccent)

	markOK   = lipgloss.NewStyle().Foreground(colorOK).Render("✓")
	markFail = lipgloss.NewStyle().Foreground(colorFail).Render("✗")
	markWarn = lipgloss.NewStyle().Foreground(colorWarn).Render("!")
	markInfo = lipgloss.NewStyle().Foreground(colorLabel).Render("›")
)

func status(mark, format string, args ...any) {
	fmt.Fprintln(out, mark+" "+fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { status(markOK, format, args...) }
func printInfo(format string, args ...any)    { status(markInfo, format, args...) }

func printWarning(format string, args ...any) {
	msg := lipgloss.NewStyle().Foreground(colorWarn).Render(fmt.Sprintf(format, args...))
	fmt.Fprintln(out, markWarn+" "+msg)
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(out, "  "+styleMuted.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Fprintln(out, "  "+styleMuted.Render("→")+" "+styleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(out, styleLabel.Render(key)+" "+styleValue.Render(value))
}

// printStats summarises a run on one line, e.g.
// "3 individuals · 2 generations · 3 cells · 4ms · fresh".
func printStats(s pipeline.Stats, cached bool) {
	parts := []string{
		fmt.Sprintf("%d individuals", s.Individuals),
		fmt.Sprintf("%d generations", s.Levels),
		fmt.Sprintf("%d cells", s.Cells),
	}
	if d := s.LayoutTime + s.RenderTime; d > 0 {
		parts = append(parts, d.Round(time.Millisecond).String())
	}
	if cached {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorOK).Render("cached"))
	} else {
		parts = append(parts, "fresh")
	}
	for i := range parts {
		parts[i] = styleMuted.Render(parts[i])
	}
	fmt.Fprintln(out, "  "+strings.Join(parts, styleMuted.Render(" · ")))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, styleMuted.Render(description+":")+" "+styleLink.Render(cmd))
}
