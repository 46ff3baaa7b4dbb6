package payments

import (
	"time"

	"github.com/landgrants/agreement-backend/pkg/config"
)

// RetentionPrefix selects the storage-path prefix for an agreement document.
// Total retention years = whole-year agreement span + the configured base
// retention years, classified against the two ascending thresholds.
func RetentionPrefix(cfg config.RetentionConfig, startDate, endDate time.Time) string {
	total := wholeYearsBetween(startDate, endDate) + cfg.BaseYears

	switch {
	case total <= cfg.BaseThreshold:
		return cfg.BasePrefix
	case total <= cfg.ExtendedThreshold:
		return cfg.ExtendedPrefix
	default:
		return cfg.MaximumPrefix
	}
}

func wholeYearsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	years := end.Year() - start.Year()
	anniversary := start.AddDate(years, 0, 0)
	if anniversary.After(end) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
