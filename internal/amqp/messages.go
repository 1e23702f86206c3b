package amqp

import (
	"encoding/json"
	"time"
)

// EventType names what happened to a listing.
type EventType string

const (
	EventCreated     EventType = "created"
	EventUpdated     EventType = "updated"
	EventProcessed   EventType = "processed"
	EventDealUpdated EventType = "deal_updated"
	EventPhotoAdded  EventType = "photo_added"
	EventDeleted     EventType = "deleted"
)

// ListingEvent is a lightweight notification; consumers re-read the listing
// when they need its fields.
type ListingEvent struct {
	Type      EventType `json:"type"`
	ListingID string    `json:"listing_id"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewListingEvent(typ EventType, listingID, status string) *ListingEvent {
	return &ListingEvent{
		Type:      typ,
		ListingID: listingID,
		Status:    status,
		Timestamp: time.Now(),
	}
}

// RoutingKey is listing.<type>.
func (e *ListingEvent) RoutingKey() string {
	return "listing." + string(e.Type)
}

func (e *ListingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ListingEventFromJSON(data []byte) (*ListingEvent, error) {
	var e ListingEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ReminderReason explains why a follow-up reminder fired.
type ReminderReason string

const (
	ReasonDue  ReminderReason = "due"
	ReasonCold ReminderReason = "cold"
)

// FollowUpReminder asks the agent to get back to a listing.
type FollowUpReminder struct {
	ListingID    string           `json:"listing_id"`
	Name         string           `json:"condo_name"`
	Status       string           `json:"status"`
	Reasons      []ReminderReason `json:"reasons"`
	AgingDays    int              `json:"aging_days"`
	NextFollowUp *time.Time       `json:"next_follow_up,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}

func (r *FollowUpReminder) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

func FollowUpReminderFromJSON(data []byte) (*FollowUpReminder, error) {
	var r FollowUpReminder
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
