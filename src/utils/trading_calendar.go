package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// DefaultMIC is used for symbols without a known exchange suffix (US listings)
const DefaultMIC = "xnys"

// Exchange suffix -> MIC code (ISO 10383) as understood by scmhub/calendar
var suffixMIC = map[string]string{
	".L":  "xlon",
	".PA": "xpar",
	".DE": "xfra",
	".AS": "xams",
	".BR": "xbru",
	".MI": "xmil",
	".MC": "xmad",
	".ST": "xsto",
	".CO": "xcse",
	".HE": "xhel",
	".VI": "xwbo",
	".SW": "xswx",
	".TO": "xtse",
	".V":  "xtsx",
	".T":  "xtks",
	".HK": "xhkg",
	".AX": "xasx",
	".KS": "xkrx",
	".TW": "xtai",
	".SS": "xshg",
	".SZ": "xshe",
}

// TradingCalendar answers "is this exchange open" using scmhub/calendar,
// falling back to Mon-Fri 09:30-16:00 New York time.
type TradingCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// MICForSymbol maps a ticker to its exchange MIC from its suffix
func MICForSymbol(symbol string) string {
	if i := strings.LastIndex(symbol, "."); i > 0 {
		if mic, ok := suffixMIC[strings.ToUpper(symbol[i:])]; ok {
			return mic
		}
	}
	return DefaultMIC
}

// -----------------------------------------------------------------------------

// GetCalendar loads the calendar of an exchange
func GetCalendar(mic string) *TradingCalendar {
	cal := calendar.GetCalendar(mic)
	if cal == nil && mic != DefaultMIC {
		mic = DefaultMIC
		cal = calendar.GetCalendar(mic)
	}

	if cal == nil {
		nyLoc, err := time.LoadLocation("America/New_York")
		if err != nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{MIC: mic, Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{MIC: mic, Calendar: cal, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		minutes := t.Hour()*60 + t.Minute()
		return minutes >= 9*60+30 && minutes < 16*60
	}

	return tc.Calendar.IsOpen(t)
}
