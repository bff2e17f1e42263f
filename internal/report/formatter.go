// Package report renders dashboard views and summary tables as plain text.
package report

import (
	"fmt"
	"math"
	"strings"

	"MarketDash/internal/dashboard"
	"MarketDash/internal/model"
	"MarketDash/internal/recorder"
)

var arrows = map[model.Direction]string{
	model.DirectionUp:      "▲",
	model.DirectionDown:    "▼",
	model.DirectionFlat:    "=",
	model.DirectionUnknown: "·",
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatView formats one dashboard view.
func FormatView(v *dashboard.View) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s | %d bars", v.Requested, v.Series.Len()))
	if v.FellBack() {
		b.WriteString(fmt.Sprintf(" (unavailable, showing %s)", v.Series.Symbol))
	}
	b.WriteString("\n\n")

	// Levels
	if v.LevelsErr != nil {
		b.WriteString(fmt.Sprintf("Levels: %v\n", v.LevelsErr))
	} else {
		b.WriteString(fmt.Sprintf("Levels %s:", v.Levels.Time.Format("2006-01-02")))
		for _, l := range v.Levels.All() {
			b.WriteString(fmt.Sprintf("  %s %s %s", l.Label, num(l.Price), arrows[l.Direction]))
		}
		b.WriteString("\n")
	}

	// Bands
	n := len(v.Bands.Mean)
	if n > 0 {
		b.WriteString(fmt.Sprintf("Bollinger(%d, %.2f): mean %s | upper %s | lower %s\n",
			v.Bands.Window, v.Bands.K, num(v.Bands.Mean[n-1]), num(v.Bands.Upper[n-1]), num(v.Bands.Lower[n-1])))
	}
	if v.RangeErr == nil {
		b.WriteString(fmt.Sprintf("52w range: %s - %s (position %.0f%%)\n", num(v.Range.Low), num(v.Range.High), v.Range.Position*100))
	}

	// Indicators
	if len(v.Indicators) > 0 {
		b.WriteString("\nIndicators:\n")
		for _, out := range v.Indicators {
			parts := make([]string, 0, len(out.Lines))
			for _, l := range out.Lines {
				parts = append(parts, fmt.Sprintf("%s %s", l.Name, num(l.Last())))
			}
			b.WriteString(fmt.Sprintf("  %-5s %s\n", out.Kind, strings.Join(parts, " | ")))
		}
	}

	// Company
	if v.CompanyErr == nil {
		c := v.Company
		b.WriteString(fmt.Sprintf("\n%s\n%s\n%s\n%s\n", c.Name, c.Address, c.Website, c.Description))
	}
	return b.String()
}

// FormatTable formats summary rows as aligned columns.
func FormatTable(rows []model.ActiveStock) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-8s %10s %9s %8s\n", "Symbol", "Last", "Change", "%Chg"))
	for _, r := range rows {
		sign := ""
		if r.Positive() {
			sign = "+"
		}
		b.WriteString(fmt.Sprintf("%-8s %10s %9s %8s\n",
			r.Symbol, r.Last.StringFixed(2), sign+r.Change.StringFixed(2), sign+r.ChangePercent.StringFixed(2)+"%"))
	}
	return b.String()
}

// FormatHistory formats stored views, newest first.
func FormatHistory(views []recorder.ViewRecord) string {
	if len(views) == 0 {
		return "No recorded views.\n"
	}
	var b strings.Builder
	for _, v := range views {
		kinds := make([]string, len(v.Indicators))
		for i, k := range v.Indicators {
			kinds[i] = string(k)
		}
		b.WriteString(fmt.Sprintf("%s  %-6s served=%-6s close=%s bands(%d, %.2f)=[%s, %s] %s\n",
			v.Timestamp.Format("2006-01-02 15:04:05"), v.Requested, v.Symbol, num(v.Close),
			v.Window, v.K, num(v.Lower), num(v.Upper), strings.Join(kinds, ",")))
	}
	return b.String()
}
