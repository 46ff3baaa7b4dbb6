package types

import "github.com/landgrants/agreement-backend/pkg/enums"

// PaymentSchedule is the computed schedule stored on an agreement version.
// It is calculated on demand while the version is offered and persisted once
// the offer is accepted.
type PaymentSchedule struct {
	AgreementStartDate  string                        `json:"agreementStartDate"`
	AgreementEndDate    string                        `json:"agreementEndDate"`
	Frequency           enums.PaymentFrequency        `json:"frequency"`
	AgreementTotalPence int64                         `json:"agreementTotalPence"`
	AnnualTotalPence    int64                         `json:"annualTotalPence"`
	ParcelItems         map[string]ParcelItem         `json:"parcelItems"`
	AgreementLevelItems map[string]AgreementLevelItem `json:"agreementLevelItems"`
	Payments            []PaymentInstalment           `json:"payments"`
}

// ParcelItem is a per-parcel funded action priced by the calculation service.
type ParcelItem struct {
	Code               string  `json:"code"`
	Description        string  `json:"description"`
	Unit               string  `json:"unit"`
	Quantity           float64 `json:"quantity"`
	RateInPence        int64   `json:"rateInPence"`
	AnnualPaymentPence int64   `json:"annualPaymentPence"`
	SheetID            string  `json:"sheetId"`
	ParcelID           string  `json:"parcelId"`
}

// AgreementLevelItem is a payment line that applies to the whole agreement.
type AgreementLevelItem struct {
	Code               string `json:"code"`
	Description        string `json:"description"`
	AnnualPaymentPence int64  `json:"annualPaymentPence"`
}

// PaymentInstalment is one dated payment in the schedule.
type PaymentInstalment struct {
	PaymentDate       string     `json:"paymentDate"`
	TotalPaymentPence int64      `json:"totalPaymentPence"`
	LineItems         []LineItem `json:"lineItems"`
}

// LineItem attributes an instalment amount to exactly one of a parcel item or
// an agreement-level item.
type LineItem struct {
	ParcelItemID         string `json:"parcelItemId,omitempty"`
	AgreementLevelItemID string `json:"agreementLevelItemId,omitempty"`
	PaymentPence         int64  `json:"paymentPence"`
}
