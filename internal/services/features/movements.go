package features

import (
	"time"

	"RegimeScan/internal/domain/models"
)

// Movements maps daily bars onto the binary up/down series the breakpoint
// scanner consumes: m[i] = 1 when close[i+1] > close[i]. Each movement is
// labeled with the date of the later close. Returns nil for fewer than two
// bars.
func Movements(bars []models.DailyBar) []models.Movement {
	if len(bars) < 2 {
		return nil
	}
	out := make([]models.Movement, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		up := 0
		if bars[i].Close > bars[i-1].Close {
			up = 1
		}
		out = append(out, models.Movement{Date: bars[i].Date, Up: up})
	}
	return out
}

// Split separates a movement series into the raw binary values and the
// matching label dates.
func Split(ms []models.Movement) ([]int, []time.Time) {
	xs := make([]int, len(ms))
	dates := make([]time.Time, len(ms))
	for i, m := range ms {
		xs[i] = m.Up
		dates[i] = m.Date
	}
	return xs, dates
}

// Subset returns the bars whose date falls within [from, to]. A zero from
// or to leaves that side unbounded, mirroring an open date range.
func Subset(bars []models.DailyBar, from, to time.Time) []models.DailyBar {
	out := make([]models.DailyBar, 0, len(bars))
	for _, b := range bars {
		if !from.IsZero() && b.Date.Before(from) {
			continue
		}
		if !to.IsZero() && b.Date.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out
}
