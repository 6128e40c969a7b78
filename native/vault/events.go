package vault

import (
	"autonchain/core/events"
	"autonchain/core/types"
)

const (
	// EventTypeVaultInitialized is emitted when the singleton is created.
	EventTypeVaultInitialized = "vault.initialized"
	// EventTypeAdminUpdated is emitted when governance authority moves.
	EventTypeAdminUpdated = "vault.admin.updated"
	// EventTypeFeeUpdated is emitted when the fee percentage changes.
	EventTypeFeeUpdated = "vault.fee.updated"
	// EventTypeSponsorshipAmountUpdated is emitted when the sponsorship
	// parameter changes.
	EventTypeSponsorshipAmountUpdated = "vault.sponsorship.updated"
	// EventTypeFeesCollected is emitted when fees accrue to the vault.
	EventTypeFeesCollected = "vault.fees.collected"
	// EventTypeWithdrawn is emitted when the admin withdraws from the vault.
	EventTypeWithdrawn = "vault.withdrawn"
	// EventTypeSponsorshipRecorded is emitted when a sponsorship is tallied.
	EventTypeSponsorshipRecorded = "vault.sponsorship.recorded"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

func wrap(eventType string, attributes map[string]string) events.Event {
	return eventEnvelope{evt: &types.Event{Type: eventType, Attributes: attributes}}
}

// VaultInitializedEvent returns the payload for vault creation.
func VaultInitializedEvent(admin string, wallet string) events.Event {
	return wrap(EventTypeVaultInitialized, map[string]string{
		"admin":  admin,
		"wallet": wallet,
	})
}

// AdminUpdatedEvent returns the payload for an admin handover.
func AdminUpdatedEvent(newAdmin string) events.Event {
	return wrap(EventTypeAdminUpdated, map[string]string{"admin": newAdmin})
}

// FeeUpdatedEvent returns the payload for a fee change.
func FeeUpdatedEvent(feeBps string) events.Event {
	return wrap(EventTypeFeeUpdated, map[string]string{"feeBps": feeBps})
}

// SponsorshipAmountUpdatedEvent returns the payload for a sponsorship
// parameter change.
func SponsorshipAmountUpdatedEvent(amount string) events.Event {
	return wrap(EventTypeSponsorshipAmountUpdated, map[string]string{"amount": amount})
}

// FeesCollectedEvent returns the payload for a fee accrual.
func FeesCollectedEvent(payer string, fee string) events.Event {
	return wrap(EventTypeFeesCollected, map[string]string{
		"payer": payer,
		"fee":   fee,
	})
}

// WithdrawnEvent returns the payload for a treasury withdrawal.
func WithdrawnEvent(recipient string, amount string) events.Event {
	return wrap(EventTypeWithdrawn, map[string]string{
		"recipient": recipient,
		"amount":    amount,
	})
}

// SponsorshipRecordedEvent returns the payload for a sponsorship tally.
func SponsorshipRecordedEvent(amount string) events.Event {
	return wrap(EventTypeSponsorshipRecorded, map[string]string{"amount": amount})
}
