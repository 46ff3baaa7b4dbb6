package enums

// PaymentFrequency is the instalment cadence reported by the calculation service.
type PaymentFrequency string

const (
	PaymentFrequencyQuarterly PaymentFrequency = "Quarterly"
	PaymentFrequencyAnnual    PaymentFrequency = "Annual"
)
