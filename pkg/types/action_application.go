package types

// AppliedFor carries the quantity an applicant requested for an action.
type AppliedFor struct {
	Quantity Quantity `json:"quantity"`
	Unit     string   `json:"unit,omitempty"`
}

// ActionApplication is one raw parcel/action row submitted by an applicant.
type ActionApplication struct {
	SheetID    string     `json:"sheetId"`
	ParcelID   string     `json:"parcelId"`
	Code       string     `json:"code"`
	AppliedFor AppliedFor `json:"appliedFor"`
}

// Identifiers groups the business reference numbers attached to a version.
type Identifiers struct {
	SBI     string `json:"sbi"`
	FRN     string `json:"frn"`
	CRN     string `json:"crn"`
	DefraID string `json:"defraId"`
}

// Applicant is the business/customer snapshot captured at offer time.
type Applicant struct {
	Business Business `json:"business"`
	Customer Customer `json:"customer"`
}

// Business holds the applicant's organisation details.
type Business struct {
	Name    string  `json:"name"`
	Email   string  `json:"email,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Address Address `json:"address"`
}

// Customer holds the named contact for the agreement.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Address is a postal address snapshot.
type Address struct {
	Line1    string `json:"line1,omitempty"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city,omitempty"`
	Postcode string `json:"postalCode,omitempty"`
}
