package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// ErrReviewCancelled is returned when the user quits the fix review.
var ErrReviewCancelled = errors.New("fix review cancelled")

var (
	accentColor = lipgloss.Color("#8BC34A")
	mutedColor  = lipgloss.Color("#6b7280")
	addedColor  = lipgloss.Color("#22c55e")
	removeColor = lipgloss.Color("#ef4444")
	warnColor   = lipgloss.Color("#FFC107")
)

type tuiStyles struct {
	header  lipgloss.Style
	file    lipgloss.Style
	cursor  lipgloss.Style
	checked lipgloss.Style
	muted   lipgloss.Style
	added   lipgloss.Style
	removed lipgloss.Style
	hunk    lipgloss.Style
	warning lipgloss.Style
}

func defaultStyles() tuiStyles {
	return tuiStyles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			Border(lipgloss.NormalBorder(), false, false, true, false),
		file:    lipgloss.NewStyle().Bold(true),
		cursor:  lipgloss.NewStyle().Foreground(accentColor).Bold(true),
		checked: lipgloss.NewStyle().Foreground(addedColor),
		muted:   lipgloss.NewStyle().Foreground(mutedColor),
		added:   lipgloss.NewStyle().Foreground(addedColor),
		removed: lipgloss.NewStyle().Foreground(removeColor),
		hunk:    lipgloss.NewStyle().Foreground(mutedColor).Italic(true),
		warning: lipgloss.NewStyle().Foreground(warnColor).Bold(true),
	}
}

// TUI implements UI for terminals. Tables come from SimpleUI; diffs are
// coloured and fixes are reviewed in an interactive list.
type TUI struct {
	*SimpleUI
	input  io.Reader
	output io.Writer
	styles tuiStyles
}

// NewTUI creates a new TUI.
func NewTUI(cmd *cobra.Command) *TUI {
	return &TUI{
		SimpleUI: NewSimpleUI(cmd),
		input:    cmd.InOrStdin(),
		output:   cmd.OutOrStdout(),
		styles:   defaultStyles(),
	}
}

// DisplayDiff colours added and removed lines.
func (t *TUI) DisplayDiff(ctx context.Context, path m.Path, diff string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if diff == "" {
		_, err := fmt.Fprintln(t.output, t.styles.muted.Render(string(path)+": no changes"))
		return err
	}

	var b strings.Builder

	for _, line := range strings.SplitAfter(diff, "\n") {
		if line == "" {
			continue
		}

		text := strings.TrimSuffix(line, "\n")

		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			b.WriteString(t.styles.file.Render(text))
		case strings.HasPrefix(text, "@@"):
			b.WriteString(t.styles.hunk.Render(text))
		case strings.HasPrefix(text, "+"):
			b.WriteString(t.styles.added.Render(text))
		case strings.HasPrefix(text, "-"):
			b.WriteString(t.styles.removed.Render(text))
		default:
			b.WriteString(text)
		}

		b.WriteByte('\n')
	}

	_, err := fmt.Fprint(t.output, b.String())

	return err
}

// ReviewFixes opens an interactive list of the fixable results.
func (t *TUI) ReviewFixes(ctx context.Context, results []m.ValidationResult) ([]bool, error) {
	model := newReviewModel(results, t.styles)
	if len(model.items) == 0 {
		return make([]bool, len(results)), nil
	}

	program := tea.NewProgram(model,
		tea.WithInput(t.input),
		tea.WithOutput(t.output),
		tea.WithContext(ctx),
	)

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("review fixes: %w", err)
	}

	reviewed, ok := final.(reviewModel)
	if !ok || reviewed.cancelled {
		return nil, ErrReviewCancelled
	}

	return reviewed.decisions(len(results)), nil
}

type reviewKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	All     key.Binding
	None    key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

func defaultReviewKeys() reviewKeyMap {
	return reviewKeyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		All:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "accept all")),
		None:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "accept none")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "cancel")),
	}
}

func (k reviewKeyMap) help() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.All, k.None, k.Confirm, k.Quit}
}

type reviewItem struct {
	index    int
	result   m.ValidationResult
	accepted bool
}

// reviewModel is the Bubble Tea model behind ReviewFixes. Only fixable
// results are listed; everything starts declined.
type reviewModel struct {
	items     []reviewItem
	cursor    int
	keys      reviewKeyMap
	styles    tuiStyles
	done      bool
	cancelled bool
}

func newReviewModel(results []m.ValidationResult, styles tuiStyles) reviewModel {
	var items []reviewItem

	for i, res := range results {
		if res.Fixable() {
			items = append(items, reviewItem{index: i, result: res})
		}
	}

	return reviewModel{items: items, keys: defaultReviewKeys(), styles: styles}
}

func (rm reviewModel) Init() tea.Cmd {
	return nil
}

func (rm reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return rm, nil
	}

	switch {
	case key.Matches(keyMsg, rm.keys.Quit):
		rm.cancelled = true
		return rm, tea.Quit
	case key.Matches(keyMsg, rm.keys.Confirm):
		rm.done = true
		return rm, tea.Quit
	case key.Matches(keyMsg, rm.keys.Up):
		if rm.cursor > 0 {
			rm.cursor--
		}
	case key.Matches(keyMsg, rm.keys.Down):
		if rm.cursor < len(rm.items)-1 {
			rm.cursor++
		}
	case key.Matches(keyMsg, rm.keys.Toggle):
		rm.items = rm.withAccepted(func(i int, cur bool) bool {
			if i == rm.cursor {
				return !cur
			}

			return cur
		})
	case key.Matches(keyMsg, rm.keys.All):
		rm.items = rm.withAccepted(func(int, bool) bool { return true })
	case key.Matches(keyMsg, rm.keys.None):
		rm.items = rm.withAccepted(func(int, bool) bool { return false })
	}

	return rm, nil
}

// withAccepted copies the items so earlier model values stay unchanged.
func (rm reviewModel) withAccepted(fn func(i int, cur bool) bool) []reviewItem {
	items := make([]reviewItem, len(rm.items))
	for i, it := range rm.items {
		it.accepted = fn(i, it.accepted)
		items[i] = it
	}

	return items
}

func (rm reviewModel) decisions(n int) []bool {
	out := make([]bool, n)
	for _, it := range rm.items {
		out[it.index] = it.accepted
	}

	return out
}

func (rm reviewModel) View() string {
	if rm.done || rm.cancelled {
		return ""
	}

	var b strings.Builder

	accepted := 0
	for _, it := range rm.items {
		if it.accepted {
			accepted++
		}
	}

	b.WriteString(rm.styles.header.Render(fmt.Sprintf("Review fixes (%d/%d accepted)", accepted, len(rm.items))))
	b.WriteString("\n\n")

	for i, it := range rm.items {
		pointer := "  "
		if i == rm.cursor {
			pointer = rm.styles.cursor.Render("> ")
		}

		box := "[ ]"
		if it.accepted {
			box = rm.styles.checked.Render("[x]")
		}

		unit, path := it.result.Target()
		fmt.Fprintf(&b, "%s%s %s:%s -> %s:%s\n", pointer, box,
			it.result.Record.UnitName, it.result.Record.PropertyPath, unit, path)

		if it.result.Message != "" {
			b.WriteString("      " + rm.styles.muted.Render(it.result.Message) + "\n")
		}

		if it.result.Warning != "" {
			b.WriteString("      " + rm.styles.warning.Render(it.result.Warning) + "\n")
		}

		if alts := alternativesLabel(it.result); alts != "" {
			b.WriteString("      " + rm.styles.muted.Render("also close: "+alts) + "\n")
		}
	}

	help := make([]string, 0, len(rm.keys.help()))
	for _, binding := range rm.keys.help() {
		h := binding.Help()
		help = append(help, h.Key+" "+h.Desc)
	}

	b.WriteString("\n" + rm.styles.muted.Render(strings.Join(help, " • ")) + "\n")

	return b.String()
}
