package payments

import (
	"testing"
	"time"
)

func TestFirstPaymentDate(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  time.Time
	}{
		{
			"january start pays in march",
			time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			"start on a payment day pays the same day",
			time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.June, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			"day after a payment day rolls to the next quarter",
			time.Date(2026, time.June, 6, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			"late december rolls into march next year",
			time.Date(2026, time.December, 6, 0, 0, 0, 0, time.UTC),
			time.Date(2027, time.March, 5, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FirstPaymentDate(tc.start); !got.Equal(tc.want) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
