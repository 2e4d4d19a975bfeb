package calculator

import (
	"sort"

	"GreenMetrics/internal/model"
)

// EventImpact is the close-to-close price change around one market event.
type EventImpact struct {
	Event     model.MarketEvent
	Window    model.Period
	PrePrice  float64
	PostPrice float64
	ImpactPct float64
}

// EventImpacts measures each event inside the series range over
// [date-halfWindowDays, date+halfWindowDays] calendar days, from the first to
// the last close in that window. Events outside the series are skipped.
func EventImpacts(series *model.AssetSeries, events []model.MarketEvent, halfWindowDays int) []EventImpact {
	sorted := make([]model.MarketEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	span := series.Period()
	var out []EventImpact
	for _, ev := range sorted {
		d := model.DateOf(ev.Date)
		if !span.Contains(d) {
			continue
		}
		w := model.Period{From: d.AddDate(0, 0, -halfWindowDays), To: d.AddDate(0, 0, halfWindowDays)}
		sub, err := series.Slice(w)
		if err != nil {
			continue
		}
		pre, post := sub.Bar(0).Close, sub.Bar(sub.Len()-1).Close
		out = append(out, EventImpact{
			Event:     ev,
			Window:    w,
			PrePrice:  pre,
			PostPrice: post,
			ImpactPct: (post - pre) / pre * 100,
		})
	}
	return out
}
