package payments

import (
	"testing"
	"time"

	"github.com/landgrants/agreement-backend/pkg/config"
)

func retentionConfig() config.RetentionConfig {
	return config.RetentionConfig{
		BaseYears:         7,
		BaseThreshold:     10,
		ExtendedThreshold: 15,
		BasePrefix:        "base",
		ExtendedPrefix:    "extended",
		MaximumPrefix:     "maximum",
	}
}

func TestRetentionPrefixBuckets(t *testing.T) {
	cfg := retentionConfig()
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		years int
		want  string
	}{
		{"three year agreement stays base", 3, "base"},
		{"eight year agreement is extended", 8, "extended"},
		{"thirteen year agreement is maximum", 13, "maximum"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			end := start.AddDate(tc.years, 0, 0)
			if got := RetentionPrefix(cfg, start, end); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestRetentionPrefixBoundaries(t *testing.T) {
	cfg := retentionConfig()
	start := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)

	// span 3y = total 10, right on the base threshold
	if got := RetentionPrefix(cfg, start, start.AddDate(3, 0, 0)); got != "base" {
		t.Fatalf("expected base at threshold, got %q", got)
	}
	// one day short of a whole year does not count it
	if got := RetentionPrefix(cfg, start, start.AddDate(4, 0, -1)); got != "base" {
		t.Fatalf("expected base for partial year, got %q", got)
	}
	// span 8y = total 15, right on the extended threshold
	if got := RetentionPrefix(cfg, start, start.AddDate(8, 0, 0)); got != "extended" {
		t.Fatalf("expected extended at threshold, got %q", got)
	}
	// end before start clamps to the base span
	if got := RetentionPrefix(cfg, start, start.AddDate(-1, 0, 0)); got != "base" {
		t.Fatalf("expected base for inverted range, got %q", got)
	}
}
