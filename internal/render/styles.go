package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sells-group/toolscout/internal/model"
)

// Color palette
var (
	colorPrimary = lipgloss.Color("#00D7FF") // cyan: names, headings
	colorSuccess = lipgloss.Color("#87FF5F") // green: free tiers
	colorWarning = lipgloss.Color("#FFD700") // yellow: paid tiers
	colorAccent  = lipgloss.Color("#AF87FF") // purple: enterprise
	colorMuted   = lipgloss.Color("#555577") // dim gray: hints, unknown
	colorBorder  = lipgloss.Color("#333355")
)

const cardWidth = 76

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(cardWidth)

	nameStyle    = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).MarginBottom(1)
	linkStyle    = lipgloss.NewStyle().Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	badgeBase    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	indexStyle   = lipgloss.NewStyle().Foreground(colorMuted).Width(3)
	emptyStyle   = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	recentPrefix = lipgloss.NewStyle().Foreground(colorPrimary).Render("›")
)

// badgeStyle colors a pricing tier.
func badgeStyle(tier model.PricingTier) lipgloss.Style {
	switch tier {
	case model.PricingFree, model.PricingFreemium:
		return badgeBase.Foreground(colorSuccess)
	case model.PricingPaid, model.PricingSubscription:
		return badgeBase.Foreground(colorWarning)
	case model.PricingEnterprise:
		return badgeBase.Foreground(colorAccent)
	default:
		return badgeBase.Foreground(colorMuted)
	}
}
