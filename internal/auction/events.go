package auction

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a state change pushed to connected viewers.
type EventType string

const (
	EventPlayerSelected EventType = "player_selected"
	EventBidChanged     EventType = "bid_changed"
	EventPlayerSold     EventType = "player_sold"
	EventPlayerUnsold   EventType = "player_unsold"
	EventPlayerRemoved  EventType = "player_removed"
	EventPlayerAdded    EventType = "player_added"
	EventPlayerDeleted  EventType = "player_deleted"
	EventTeamAdded      EventType = "team_added"
	EventTeamRemoved    EventType = "team_removed"
	EventAuctionReset   EventType = "auction_reset"
	EventStateSynced    EventType = "state_synced"
	EventThemeChanged   EventType = "theme_changed"
)

// Event is one auction state change, pushed to every connected viewer.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Broadcaster defines what the app layer needs from the push transport.
type Broadcaster interface {
	Broadcast(event Event)
}

// NopBroadcaster discards events. Used when no gateway is attached.
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(Event) {}

func newEvent(eventType EventType, data any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
