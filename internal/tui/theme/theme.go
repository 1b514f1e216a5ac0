package theme

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Palette is a named set of colors for the TUI.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Border    lipgloss.Color
	Muted     lipgloss.Color
	Highlight lipgloss.Color
	BarBg     lipgloss.Color
	BarFg     lipgloss.Color
}

var palettes = map[string]Palette{
	"default": {
		Primary: "63", Secondary: "241", Success: "42", Error: "196",
		Border: "238", Muted: "245", Highlight: "229", BarBg: "236", BarFg: "252",
	},
	"light": {
		Primary: "25", Secondary: "244", Success: "28", Error: "160",
		Border: "250", Muted: "242", Highlight: "166", BarBg: "254", BarFg: "235",
	},
	"mono": {
		Primary: "15", Secondary: "245", Success: "15", Error: "15",
		Border: "240", Muted: "245", Highlight: "15", BarBg: "236", BarFg: "252",
	},
}

// Colors of the active palette.
var (
	ColorPrimary   lipgloss.Color
	ColorSecondary lipgloss.Color
	ColorSuccess   lipgloss.Color
	ColorError     lipgloss.Color
	ColorBorder    lipgloss.Color
	ColorMuted     lipgloss.Color
	ColorHighlight lipgloss.Color
)

// Shared styles used across TUI components, rebuilt by Apply.
var (
	StyleBorder       lipgloss.Style
	StyleActiveBorder lipgloss.Style
	StyleTitle        lipgloss.Style
	StyleMuted        lipgloss.Style
	StyleError        lipgloss.Style
	StyleSuccess      lipgloss.Style
	StyleStatusBar    lipgloss.Style
)

func init() {
	use(palettes["default"])
}

// Names returns the available palette names, sorted.
func Names() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply switches to the named palette. An empty name selects "default".
func Apply(name string) error {
	if name == "" {
		name = "default"
	}
	p, ok := palettes[name]
	if !ok {
		return fmt.Errorf("unknown theme %q", name)
	}
	use(p)
	return nil
}

func use(p Palette) {
	ColorPrimary = p.Primary
	ColorSecondary = p.Secondary
	ColorSuccess = p.Success
	ColorError = p.Error
	ColorBorder = p.Border
	ColorMuted = p.Muted
	ColorHighlight = p.Highlight

	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleActiveBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary)

	StyleTitle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	StyleMuted = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleError = lipgloss.NewStyle().Foreground(ColorError)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)

	StyleStatusBar = lipgloss.NewStyle().
		Background(p.BarBg).
		Foreground(p.BarFg).
		Padding(0, 1)
}
