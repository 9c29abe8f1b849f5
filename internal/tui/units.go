package tui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"longevity/internal/config"
)

const kmPerMile = 1.609344

// Units formats values according to the display preferences
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// FormatDistance formats a distance in kilometers in the preferred unit
func (u Units) FormatDistance(km *float64) string {
	if km == nil {
		return "-"
	}
	if u.IsMiles() {
		return fmt.Sprintf("%.1f mi", *km/kmPerMile)
	}
	return fmt.Sprintf("%.1f km", *km)
}

// FormatDistanceValue returns just the numeric distance value (no unit label)
func (u Units) FormatDistanceValue(km *float64) string {
	if km == nil {
		return "-"
	}
	if u.IsMiles() {
		return fmt.Sprintf("%.1f", *km/kmPerMile)
	}
	return fmt.Sprintf("%.1f", *km)
}

// DistanceLabel returns the short unit label ("mi" or "km")
func (u Units) DistanceLabel() string {
	if u.IsMiles() {
		return "mi"
	}
	return "km"
}

// IsMiles returns true if distance unit is miles
func (u Units) IsMiles() bool {
	return u.cfg.DistanceUnit == "mi"
}

// formatMinutes renders a duration given in minutes as "1h 05m" or "45m"
func formatMinutes(minutes float64) string {
	total := int(minutes + 0.5)
	h, m := total/60, total%60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// formatDays renders a gap in days, "-" when unknown
func formatDays(days *float64) string {
	if days == nil {
		return "-"
	}
	return fmt.Sprintf("%.1fd", *days)
}

// formatSteps renders a step count with thousands separators
func formatSteps(steps *int) string {
	if steps == nil {
		return "-"
	}
	return humanize.Comma(int64(*steps))
}

// formatAgo renders a wall-clock date relative to now, e.g. "3 days ago"
func formatAgo(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

func formatIntPtr(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func formatFloatPtr(v *float64, precision int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", precision, *v)
}

func truncateName(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
