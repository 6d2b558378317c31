package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMICForSymbol(t *testing.T) {
	assert.Equal(t, "xnys", MICForSymbol("AAPL"))
	assert.Equal(t, "xlon", MICForSymbol("VOD.L"))
	assert.Equal(t, "xmad", MICForSymbol("SAN.MC"))
	assert.Equal(t, "xtks", MICForSymbol("7203.T"))
	assert.Equal(t, "xnys", MICForSymbol("BRK.UNKNOWN"))
	assert.Equal(t, "xnys", MICForSymbol(".L"))
}

func TestMarketScheduler_CachesCalendarPerExchange(t *testing.T) {
	ms := NewMarketScheduler(nil)

	a := ms.CalendarFor("AAPL")
	b := ms.CalendarFor("MSFT")
	c := ms.CalendarFor("VOD.L")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Len(t, ms.Calendars, 2)
}

func TestMarketScheduler_WeekendIsClosed(t *testing.T) {
	ms := NewMarketScheduler(nil)
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}

	// Saturday noon in New York
	saturday := time.Date(2024, 3, 2, 12, 0, 0, 0, ny)
	assert.False(t, ms.IsOpen("AAPL", saturday))

	ms.now = func() time.Time { return saturday }
	assert.False(t, ms.IsOpenNow("AAPL"))
	assert.False(t, ms.AnyMarketOpen([]string{"AAPL", "MSFT"}))
}

func TestTradingCalendar_Fallback(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	tc := &TradingCalendar{MIC: "test", Fallback: true, Timezone: ny}

	// Wednesday
	assert.True(t, tc.IsOpenOnMinute(time.Date(2024, 3, 6, 9, 30, 0, 0, ny)))
	assert.True(t, tc.IsOpenOnMinute(time.Date(2024, 3, 6, 15, 59, 0, 0, ny)))
	assert.False(t, tc.IsOpenOnMinute(time.Date(2024, 3, 6, 9, 29, 0, 0, ny)))
	assert.False(t, tc.IsOpenOnMinute(time.Date(2024, 3, 6, 16, 0, 0, 0, ny)))
	assert.False(t, tc.IsOpenOnMinute(time.Date(2024, 3, 9, 12, 0, 0, 0, ny)))
}
