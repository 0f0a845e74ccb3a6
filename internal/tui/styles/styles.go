package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	NewsBlue   = lipgloss.Color("#3B82F6")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Amber      = lipgloss.Color("#F59E0B")
	Red        = lipgloss.Color("#EF4444")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(NewsBlue)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(NewsBlue).
			Padding(0, 1)

	MatchStyle = lipgloss.NewStyle().
			Foreground(NewsBlue).
			Underline(true)
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Padding(0, 1)

	TabStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(NewsBlue).
			Bold(true).
			Padding(0, 1)
)

// Cache provenance badges
var (
	CachedBadgeStyle = lipgloss.NewStyle().
				Foreground(SlateDark).
				Background(Amber).
				Padding(0, 1)

	LiveBadgeStyle = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(Green).
			Padding(0, 1)
)

// List item styles
var (
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateLight).
				Bold(true).
				Padding(0, 1)

	NormalItemStyle = lipgloss.NewStyle().
			Foreground(White).
			Padding(0, 1)

	ItemMetaStyle = lipgloss.NewStyle().
			Foreground(DimGray).
			Padding(0, 1)

	ItemDescStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 1)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(NewsBlue).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true).
			MarginBottom(1)
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(NewsBlue)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Status bar
var (
	StatusBarStyle = lipgloss.NewStyle().
		Foreground(LightGray).
		Padding(0, 1)
)
