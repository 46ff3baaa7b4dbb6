package payments

import "time"

// Quarterly payment days: the 5th of March, June, September, December.
var quarterlyPaymentMonths = []time.Month{time.March, time.June, time.September, time.December}

const quarterlyPaymentDay = 5

// FirstPaymentDate returns the first quarterly payment date on or after the
// agreement start date. Display-only; the calculation service owns the
// authoritative schedule.
func FirstPaymentDate(startDate time.Time) time.Time {
	start := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, startDate.Location())

	for _, month := range quarterlyPaymentMonths {
		candidate := time.Date(start.Year(), month, quarterlyPaymentDay, 0, 0, 0, 0, start.Location())
		if !candidate.Before(start) {
			return candidate
		}
	}
	return time.Date(start.Year()+1, quarterlyPaymentMonths[0], quarterlyPaymentDay, 0, 0, 0, 0, start.Location())
}
