package cli

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackwright/pkg/assembly"
)

// =============================================================================
// Edit Command
// =============================================================================

// editCommand opens an interactive field editor.
func (c *CLI) editCommand() *cobra.Command {
	var (
		src  sourceFlags
		save string
	)
	cmd := &cobra.Command{
		Use:   "edit [part]",
		Short: "Edit a part interactively",
		Long: `Edit the fields of a part in the terminal. Arrow keys move between fields
and step values, [ and ] take large diameter steps, enter types a number,
s saves and quits, q quits without saving.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			a, err := c.build(ctx, r, args, src)
			if err != nil {
				return err
			}
			if save == "" {
				save = src.instance
			}

			final, err := tea.NewProgram(newEditor(a), tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			ed := final.(*editor)
			if !ed.saved {
				printInfo("Discarded changes")
				return nil
			}
			if save == "" {
				printWarning("Nothing saved; pass --save NAME to persist")
				return nil
			}
			if err := r.Save(ctx, save, a); err != nil {
				return err
			}
			printSuccess("Saved %s as %s", a.Config().Name, StyleHighlight.Render(save))
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&save, "save", "", "instance name to save under (default the --instance name)")
	return cmd
}

// =============================================================================
// Editor Model
// =============================================================================

var (
	styleCursor   = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	styleFieldKey = lipgloss.NewStyle().Foreground(colorGray).Width(16)
	styleHelp     = lipgloss.NewStyle().Foreground(colorDim)
)

// editor is a bubbletea model over the visible fields of one assembly.
type editor struct {
	a      *assembly.Assembly
	fields []assembly.FieldInfo
	cursor int

	typing bool
	input  string
	err    error

	saved bool
	done  bool
}

func newEditor(a *assembly.Assembly) *editor {
	e := &editor{a: a}
	e.refresh()
	return e
}

// refresh reloads fields; visibility and choices change with each edit.
func (e *editor) refresh() {
	var current assembly.Field
	if e.cursor < len(e.fields) {
		current = e.fields[e.cursor].Field
	}
	e.fields = e.fields[:0]
	for _, f := range e.a.Fields() {
		if f.Visible {
			e.fields = append(e.fields, f)
		}
	}
	e.cursor = 0
	for i, f := range e.fields {
		if f.Field == current {
			e.cursor = i
			break
		}
	}
}

func (e *editor) Init() tea.Cmd { return nil }

func (e *editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return e, nil
	}
	if e.typing {
		return e, e.updateInput(key)
	}

	switch key.String() {
	case "ctrl+c", "q", "esc":
		e.done = true
		return e, tea.Quit
	case "s":
		e.saved, e.done = true, true
		return e, tea.Quit
	case "up", "k":
		if e.cursor > 0 {
			e.cursor--
		}
	case "down", "j":
		if e.cursor < len(e.fields)-1 {
			e.cursor++
		}
	case "left", "h":
		e.step(-1, false)
	case "right", "l":
		e.step(1, false)
	case "[":
		e.step(-1, true)
	case "]":
		e.step(1, true)
	case "enter":
		if f, ok := e.current(); ok && f.Kind == assembly.KindNumber {
			e.typing, e.input, e.err = true, f.Value, nil
		}
	}
	return e, nil
}

func (e *editor) updateInput(key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyCtrlC:
		e.done = true
		return tea.Quit
	case tea.KeyEsc:
		e.typing, e.input = false, ""
	case tea.KeyEnter:
		e.typing = false
		if f, ok := e.current(); ok {
			e.apply(f.Field, e.input)
		}
		e.input = ""
	case tea.KeyBackspace:
		if len(e.input) > 0 {
			e.input = e.input[:len(e.input)-1]
		}
	case tea.KeyRunes:
		for _, r := range key.Runes {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				e.input += string(r)
			}
		}
	}
	return nil
}

func (e *editor) current() (assembly.FieldInfo, bool) {
	if e.cursor < 0 || e.cursor >= len(e.fields) {
		return assembly.FieldInfo{}, false
	}
	return e.fields[e.cursor], true
}

// step moves the current field by one increment. Choices wrap around;
// numbers stay within their bounds.
func (e *editor) step(dir int, large bool) {
	f, ok := e.current()
	if !ok {
		return
	}
	switch f.Kind {
	case assembly.KindChoice:
		if len(f.Choices) == 0 || large {
			return
		}
		i := slices.Index(f.Choices, f.Value)
		i = (i + dir + len(f.Choices)) % len(f.Choices)
		e.apply(f.Field, f.Choices[i])
	case assembly.KindNumber:
		v, err := strconv.ParseFloat(f.Value, 64)
		if err != nil {
			e.err = err
			return
		}
		inc := f.Step
		if large && f.Field == assembly.FieldDiameter {
			inc = e.a.Config().LargeStep
		}
		v = math.Max(f.Min, math.Min(f.Max, v+float64(dir)*inc))
		e.apply(f.Field, strconv.FormatFloat(v, 'f', -1, 64))
	}
}

func (e *editor) apply(f assembly.Field, value string) {
	e.err = e.a.SetField(f, value)
	e.refresh()
}

func (e *editor) View() string {
	if e.done {
		return ""
	}
	var b strings.Builder
	cfg := e.a.Config()
	b.WriteString(StyleTitle.Render(cfg.Name) + "\n\n")

	for i, f := range e.fields {
		cursor := "  "
		if i == e.cursor {
			cursor = styleCursor.Render("› ")
		}
		value := f.Value
		if i == e.cursor && e.typing {
			value = e.input + "█"
		}
		line := cursor + styleFieldKey.Render(f.Name) + StyleValue.Render(value)
		if f.Kind == assembly.KindChoice && len(f.Choices) > 1 {
			line += StyleDim.Render(fmt.Sprintf("  (%d/%d)", slices.Index(f.Choices, f.Value)+1, len(f.Choices)))
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render(fmt.Sprintf("length %s · max diameter %s · mass %s · cost %s",
		formatFloat(e.a.TotalLength()), formatFloat(e.a.LargestDiameter()),
		formatFloat(e.a.ModifiedMass()), formatFloat(e.a.ModifiedCost()))) + "\n")
	if e.err != nil {
		b.WriteString(StyleError.Render(e.err.Error()) + "\n")
	}
	b.WriteString(styleHelp.Render("↑/↓ field · ←/→ change · [/] large step · enter type · s save · q quit") + "\n")
	return b.String()
}
