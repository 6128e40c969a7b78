package sponsor

import (
	"autonchain/core/events"
	"autonchain/core/types"
)

// EventTypeUserSponsored is emitted when a user receives their one-shot
// sponsorship.
const EventTypeUserSponsored = "sponsor.user.sponsored"

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

// UserSponsoredEvent returns the structured payload for a sponsorship.
func UserSponsoredEvent(user string, amount string) events.Event {
	return eventEnvelope{evt: &types.Event{
		Type: EventTypeUserSponsored,
		Attributes: map[string]string{
			"user":   user,
			"amount": amount,
		},
	}}
}
