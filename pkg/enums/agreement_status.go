package enums

// AgreementStatus tracks the lifecycle state of an agreement version.
type AgreementStatus string

const (
	AgreementStatusOffered    AgreementStatus = "offered"
	AgreementStatusAccepted   AgreementStatus = "accepted"
	AgreementStatusWithdrawn  AgreementStatus = "withdrawn"
	AgreementStatusCancelled  AgreementStatus = "cancelled"
	AgreementStatusTerminated AgreementStatus = "terminated"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s AgreementStatus) Valid() bool {
	switch s {
	case AgreementStatusOffered,
		AgreementStatusAccepted,
		AgreementStatusWithdrawn,
		AgreementStatusCancelled,
		AgreementStatusTerminated:
		return true
	default:
		return false
	}
}
