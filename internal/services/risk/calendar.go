package risk

import (
	"sort"

	"CoeffRisk/internal/domain/models"
)

// AlignCalendar intersects the date sets of every series and returns the
// common days newest first, truncated to lookback entries.
func AlignCalendar(series []models.PriceSeries, lookback, minOverlap int) ([]string, error) {
	if len(series) == 0 {
		return nil, &InsufficientOverlapError{Have: 0, Need: minOverlap}
	}

	common := make(map[string]struct{}, len(series[0].Closes))
	for day := range series[0].Closes {
		common[day] = struct{}{}
	}
	for _, s := range series[1:] {
		for day := range common {
			if !s.Has(day) {
				delete(common, day)
			}
		}
	}

	days := make([]string, 0, len(common))
	for day := range common {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	if lookback > 0 && len(days) > lookback {
		days = days[:lookback]
	}

	if len(days) < minOverlap {
		return nil, &InsufficientOverlapError{Have: len(days), Need: minOverlap}
	}
	return days, nil
}
