package enums

// LifecycleEventType identifies published agreement lifecycle notifications.
type LifecycleEventType string

const (
	EventAgreementCreated   LifecycleEventType = "io.landgrants.agreement.created"
	EventAgreementAccepted  LifecycleEventType = "io.landgrants.agreement.accepted"
	EventAgreementWithdrawn LifecycleEventType = "io.landgrants.agreement.withdrawn"
)

// TriggerMessageType identifies inbound lifecycle trigger messages.
type TriggerMessageType string

const (
	TriggerAgreementCreate        TriggerMessageType = "agreement.create"
	TriggerAgreementWithdraw      TriggerMessageType = "agreement.withdraw"
	TriggerAgreementStatusUpdated TriggerMessageType = "agreement.status.updated"
)
