package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MRange is a user-selectable charting window.
// Days == 1 selects the intraday buffer, anything else the daily history.
type MRange struct {
	Key         string `yaml:"key" json:"key"`     // e.g. "1D", "1M"
	Label       string `yaml:"label" json:"label"` // e.g. "Hoy", "1 Mes"
	Days        int    `yaml:"days" json:"days"`
	LabelStride int    `yaml:"label_stride" json:"label_stride"` // ignored for intraday
}

// IsIntraday reports whether the range reads from the intraday buffer.
func (r MRange) IsIntraday() bool {
	return r.Days <= 1
}

// MProjectedPoint is one display-ready point of a chart series.
type MProjectedPoint struct {
	Value    decimal.Decimal `json:"value"`
	Label    string          `json:"label,omitempty"`
	HasLabel bool            `json:"-"`
	Spacing  int             `json:"spacing"`
}

// MDelta is the first-to-last change of a projected series.
// Percent is invalid when the first value is zero.
type MDelta struct {
	Absolute   decimal.Decimal     `json:"absolute"`
	Percent    decimal.NullDecimal `json:"percent"`
	IsPositive bool                `json:"is_positive"`
}

// AbsoluteText formats the absolute change with two decimals.
func (d MDelta) AbsoluteText() string {
	return d.Absolute.StringFixed(2)
}

// PercentText formats the percent change with two decimals, or "" when unavailable.
func (d MDelta) PercentText() string {
	if !d.Percent.Valid {
		return ""
	}
	return d.Percent.Decimal.StringFixed(2)
}

// MarshalJSON renders both changes as fixed 2-decimal strings; percent is
// null when unavailable.
func (d MDelta) MarshalJSON() ([]byte, error) {
	var percent *string
	if d.Percent.Valid {
		text := d.PercentText()
		percent = &text
	}
	return json.Marshal(struct {
		Absolute   string  `json:"absolute"`
		Percent    *string `json:"percent"`
		IsPositive bool    `json:"is_positive"`
	}{d.AbsoluteText(), percent, d.IsPositive})
}

// MChart is a projected series together with its delta.
type MChart struct {
	Ticker string            `json:"ticker"`
	Range  MRange            `json:"range"`
	Points []MProjectedPoint `json:"points"`
	Delta  *MDelta           `json:"delta"` // nil with fewer than two points
}
