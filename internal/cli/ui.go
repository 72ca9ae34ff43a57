package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/stackwright/pkg/assembly"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleError for error messages.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented dim line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printCacheStatus prints a one-line size and cache summary.
func printCacheStatus(size int, cached bool) {
	status, style := iconFresh, styleComputed
	if cached {
		status, style = iconCached, styleCached
	}
	fmt.Println("  " + StyleDim.Render(formatBytes(size)) + StyleDim.Render(" · ") + style.Render(status))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Tables
// =============================================================================

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		})
}

// writeSnapshot renders the derived outputs of an assembly.
func writeSnapshot(w io.Writer, s assembly.Snapshot) {
	fmt.Fprintln(w, StyleTitle.Render(s.Part))
	summary := []struct{ k, v string }{
		{"diameter", formatFloat(s.Diameter)},
		{"vscale", formatFloat(s.VScale)},
		{"variant", s.Variant},
		{"length", formatFloat(s.TotalLength)},
		{"max diameter", formatFloat(s.LargestDiameter)},
		{"mass", formatFloat(s.Mass)},
		{"cost", formatFloat(s.Cost)},
	}
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	for _, kv := range summary {
		fmt.Fprintln(w, keyStyle.Render(kv.k)+" "+StyleValue.Render(kv.v))
	}

	segs := newTable("segment", "model", "texture", "position", "height", "upper", "lower", "scale", "mass")
	for _, seg := range s.Segments {
		model := seg.Model
		if seg.Inverted {
			model += " ↕"
		}
		segs.Row(seg.Role, model, dash(seg.Texture), formatFloat(seg.Position), formatFloat(seg.Height),
			formatFloat(seg.UpperDiameter), formatFloat(seg.LowerDiameter),
			formatFloat(seg.HorizontalScale)+"/"+formatFloat(seg.VerticalScale), formatFloat(seg.Mass))
	}
	fmt.Fprintln(w, segs.Render())

	if len(s.Nodes) > 0 {
		nodes := newTable("node", "position", "orientation", "size", "attached")
		for _, n := range s.Nodes {
			nodes.Row(n.Name, formatVec(n.Position[:]), formatVec(n.Orientation[:]), fmt.Sprint(n.Size), dash(n.Attached))
		}
		fmt.Fprintln(w, nodes.Render())
	}

	if len(s.Contributions) > 0 {
		var parts []string
		for _, c := range s.Contributions {
			parts = append(parts, fmt.Sprintf("%s %sL", c.Name, formatFloat(c.Liters)))
		}
		fmt.Fprintln(w, StyleDim.Render("volume: "+strings.Join(parts, " · ")))
	}
}

// writeFields renders the field table.
func writeFields(w io.Writer, fields []assembly.FieldInfo) {
	t := newTable("field", "value", "options")
	for _, f := range fields {
		opts := ""
		switch f.Kind {
		case assembly.KindChoice:
			opts = strings.Join(f.Choices, ", ")
		case assembly.KindNumber:
			opts = fmt.Sprintf("%s..%s step %s", formatFloat(f.Min), formatFloat(f.Max), formatFloat(f.Step))
		}
		name := f.Name
		if !f.Visible {
			name = StyleDim.Render(name + " (hidden)")
		}
		t.Row(name, f.Value, opts)
	}
	fmt.Fprintln(w, t.Render())
}

// =============================================================================
// Formatting
// =============================================================================

func formatFloat(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func formatVec(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = formatFloat(x)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

func dash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
