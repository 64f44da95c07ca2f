package analytics

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a scoring event.
type EventType string

const (
	EventScoreComputed       EventType = "score_computed"
	EventFlagRaised          EventType = "flag_raised"
	EventFlagResolved        EventType = "flag_resolved"
	EventSuggestionGenerated EventType = "suggestion_generated"
	EventBadgeAwarded        EventType = "badge_awarded"
)

// Event is a single scoring event emitted by the engine.
type Event struct {
	ID         uuid.UUID              `json:"id"`
	Type       EventType              `json:"type"`
	SubjectID  uuid.UUID              `json:"subject_id"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// NewEvent builds an event with a fresh ID and timestamp.
func NewEvent(eventType EventType, subjectID uuid.UUID, payload map[string]interface{}) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		SubjectID:  subjectID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}
