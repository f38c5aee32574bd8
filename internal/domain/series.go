package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one daily close.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// HistoricalSeries is an ordered mapping from calendar date to close
// price, ascending by date.
type HistoricalSeries []PricePoint

func (s HistoricalSeries) Sort() {
	sort.Slice(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}

// Clip filters the series to the inclusive [start, end] date range.
// Comparison is at day granularity.
func (s HistoricalSeries) Clip(start, end time.Time) HistoricalSeries {
	startDay := day(start)
	endDay := day(end)
	out := make(HistoricalSeries, 0, len(s))
	for _, p := range s {
		d := day(p.Date)
		if d.Before(startDay) || d.After(endDay) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
