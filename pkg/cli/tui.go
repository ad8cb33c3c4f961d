package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Labels and help text
	Warn    lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme is the default edamame green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#7ccf5a"),
	Dim:     lipgloss.Color("#6e7681"),
	Warn:    lipgloss.Color("#e3b341"),
	Error:   lipgloss.Color("#f85149"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Border  lipgloss.Style
	Help    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:   lipgloss.NewStyle().Foreground(t.Dim),
		Value:   lipgloss.NewStyle(),
		Border:  lipgloss.NewStyle().Foreground(t.Primary),
		Help:    lipgloss.NewStyle().Foreground(t.Dim),
		Success: lipgloss.NewStyle().Foreground(t.Primary),
		Warning: lipgloss.NewStyle().Foreground(t.Warn),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

// DefaultStyles are the styles of DefaultTheme.
var DefaultStyles = NewStyles(DefaultTheme)

// Row is one label/value line of a Panel.
type Row struct {
	Label string
	Value string
}

// Panel renders a boxed block of label/value rows, e.g. the live status of
// a running animator.
type Panel struct {
	Styles Styles
	Title  string
	Status string
	Rows   []Row
	Help   string
}

// Render renders the panel at the given total width. Values that do not
// fit are truncated with an ellipsis.
func (p Panel) Render(width int) string {
	if width < 10 {
		width = 10
	}
	bc := p.Styles.Border
	inner := width - 4

	labelWidth := 0
	for _, r := range p.Rows {
		labelWidth = max(labelWidth, lipgloss.Width(r.Label))
	}

	var lines []string
	lines = append(lines, bc.Render("╭"+strings.Repeat("─", width-2)+"╮"))

	head := p.Title
	if p.Status != "" {
		head += " [" + p.Status + "]"
	}
	lines = append(lines, p.line(truncateString(head, inner), p.Styles.Title, inner))

	for _, r := range p.Rows {
		label := r.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(r.Label))
		text := r.Value
		room := inner - labelWidth - 2
		if room > 1 && lipgloss.Width(text) > room {
			text = truncateString(text, room-1) + "…"
		}
		cell := p.Styles.Label.Render(label) + "  " + p.Styles.Value.Render(text)
		pad := max(0, inner-labelWidth-2-lipgloss.Width(text))
		lines = append(lines, bc.Render("│")+" "+cell+strings.Repeat(" ", pad)+" "+bc.Render("│"))
	}

	lines = append(lines, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	if p.Help != "" {
		lines = append(lines, p.Styles.Help.Render(p.Help))
	}
	return strings.Join(lines, "\n")
}

func (p Panel) line(text string, style lipgloss.Style, inner int) string {
	bc := p.Styles.Border
	pad := max(0, inner-lipgloss.Width(text))
	return bc.Render("│") + " " + style.Render(text) + strings.Repeat(" ", pad) + " " + bc.Render("│")
}

// truncateString safely truncates a string to the given width,
// handling multi-byte characters correctly.
func truncateString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	currentWidth := 0
	for i, r := range runes {
		w := lipgloss.Width(string(r))
		if currentWidth+w > width {
			return string(runes[:i])
		}
		currentWidth += w
	}
	return s
}
