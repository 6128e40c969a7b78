package creator

import (
	"autonchain/core/events"
	"autonchain/core/types"
)

const (
	// EventTypeUsernameRegistered is emitted when a username is claimed.
	EventTypeUsernameRegistered = "creator.username.registered"
	// EventTypeCreatorInitialized is emitted when a creator account is bootstrapped.
	EventTypeCreatorInitialized = "creator.initialized"
	// EventTypeContentAdded is emitted when a creator lists new content.
	EventTypeContentAdded = "creator.content.added"
	// EventTypeContentPaid is emitted when a buyer settles payment for content.
	EventTypeContentPaid = "creator.content.paid"
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

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

// UsernameRegisteredEvent returns the structured payload for a username claim.
func UsernameRegisteredEvent(username string, owner string) events.Event {
	return WrapEvent(&types.Event{
		Type: EventTypeUsernameRegistered,
		Attributes: map[string]string{
			"username": username,
			"owner":    owner,
		},
	})
}

// CreatorInitializedEvent returns the structured payload for a catalog bootstrap.
func CreatorInitializedEvent(creator string) events.Event {
	return WrapEvent(&types.Event{
		Type: EventTypeCreatorInitialized,
		Attributes: map[string]string{
			"creator": creator,
		},
	})
}

// ContentAddedEvent returns the structured payload for a new listing.
func ContentAddedEvent(creator string, contentID string, title string, price string) events.Event {
	return WrapEvent(&types.Event{
		Type: EventTypeContentAdded,
		Attributes: map[string]string{
			"creator":   creator,
			"contentId": contentID,
			"title":     title,
			"price":     price,
		},
	})
}

// ContentPaidEvent returns the structured payload for a settled purchase.
func ContentPaidEvent(buyer string, creator string, contentID string, amount string) events.Event {
	return WrapEvent(&types.Event{
		Type: EventTypeContentPaid,
		Attributes: map[string]string{
			"buyer":     buyer,
			"creator":   creator,
			"contentId": contentID,
			"amount":    amount,
		},
	})
}
