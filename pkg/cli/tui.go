package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the terminal color scheme.
type Theme struct {
	Primary lipgloss.Color // main accent color
	Dim     lipgloss.Color // dimmed/help text color
	Error   lipgloss.Color
	Warn    lipgloss.Color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Error:   lipgloss.Color("#ff5f87"),
	Warn:    lipgloss.Color("#ffaf00"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	Error  lipgloss.Style
	Warn   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Error:  lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Warn:   lipgloss.NewStyle().Bold(true).Foreground(t.Warn),
	}
}

// Section is a labeled block of lines inside a Frame.
type Section struct {
	Label string
	Lines []string
}

// Frame renders a bordered panel with a title line, labeled sections and an
// optional help line below the border. Content lines wider than the frame
// are truncated.
type Frame struct {
	Styles   Styles
	Title    string
	Status   string
	Sections []Section
	Help     string
}

// Render renders the frame at the given width.
func (f Frame) Render(width int) string {
	if width < 8 {
		width = 8
	}
	bc := f.Styles.Border
	maxContent := width - 4

	var lines []string
	lines = append(lines, bc.Render("╭"+strings.Repeat("─", width-2)+"╮"))

	// Title line: │ title [status]    │
	title := f.Styles.Title.Render(f.Title)
	status := ""
	if f.Status != "" {
		status = f.Styles.Help.Render("[" + f.Status + "]")
	}
	pad := max(0, width-5-lipgloss.Width(title)-lipgloss.Width(status))
	lines = append(lines, bc.Render("│")+" "+title+" "+status+
		strings.Repeat(" ", pad)+" "+bc.Render("│"))

	for _, sec := range f.Sections {
		// Separator with embedded label: ├─Label────────┤
		label := f.Styles.Label.Render(sec.Label)
		pad := max(0, width-3-lipgloss.Width(label))
		lines = append(lines, bc.Render("├─")+label+
			bc.Render(strings.Repeat("─", pad)+"┤"))

		for _, text := range sec.Lines {
			if lipgloss.Width(text) > maxContent {
				text = truncateString(text, maxContent-1) + "…"
			}
			lines = append(lines, bc.Render("│")+" "+text+
				strings.Repeat(" ", max(0, maxContent-lipgloss.Width(text)))+" "+bc.Render("│"))
		}
	}

	lines = append(lines, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	if f.Help != "" {
		lines = append(lines, f.Styles.Help.Render(f.Help))
	}
	return strings.Join(lines, "\n")
}

// truncateString truncates a string to the given display width, handling
// multi-byte and wide characters correctly.
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
