package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	NoAddress     = "No address available"
	NoDescription = "No description available"
	NoName        = "No name available"
	NoWebsite     = "No website available"

	// DescriptionLimit is the character budget for CompanyInfo.Description.
	DescriptionLimit = 250
)

// CompanyInfo is the metadata shown next to the chart.
type CompanyInfo struct {
	Symbol      string
	Address     string
	Description string
	Name        string
	Website     string
}

// NewCompanyInfo fills missing fields with their "unavailable" sentinels and
// truncates the description.
func NewCompanyInfo(symbol, city, state, description, name, website string) CompanyInfo {
	info := CompanyInfo{
		Symbol:      symbol,
		Address:     NoAddress,
		Description: NoDescription,
		Name:        NoName,
		Website:     NoWebsite,
	}
	city, state = strings.TrimSpace(city), strings.TrimSpace(state)
	if city != "" && state != "" {
		info.Address = city + ", " + state + "."
	}
	if d := strings.TrimSpace(description); d != "" {
		info.Description = TruncateDescription(d, DescriptionLimit)
	}
	if n := strings.TrimSpace(name); n != "" {
		info.Name = n
	}
	if w := strings.TrimSpace(website); w != "" {
		info.Website = w
	}
	return info
}

// TruncateDescription cuts text to at most limit characters at the last
// space before the limit and appends "...". Text with no space before the
// limit is cut hard.
func TruncateDescription(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	head := string(runes[:limit])
	if i := strings.LastIndex(head, " "); i >= 0 {
		head = head[:i]
	}
	return head + "..."
}

// ActiveStock is one row of the most-active listing or the summary table.
type ActiveStock struct {
	Symbol        string
	Name          string
	Last          decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
}

// Positive reports whether the row should be shown as a gain (zero counts as gain).
func (a ActiveStock) Positive() bool {
	return !a.Change.IsNegative()
}
