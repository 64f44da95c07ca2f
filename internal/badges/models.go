package badges

import (
	"time"

	"github.com/google/uuid"
	"github.com/pepoapp/trust-engine/internal/signals"
)

// BadgeKey identifies a badge in the catalog.
type BadgeKey string

const (
	BadgeFirstGiver      BadgeKey = "FIRST_GIVER"
	BadgeFirstReceiver   BadgeKey = "FIRST_RECEIVER"
	BadgeVerifiedNGO     BadgeKey = "VERIFIED_NGO"
	BadgeConsistentGiver BadgeKey = "CONSISTENT_GIVER"
	BadgeTrustedGiver    BadgeKey = "TRUSTED_GIVER"
	BadgeFullyVerified   BadgeKey = "FULLY_VERIFIED"
)

// SubjectType distinguishes the account kinds badges apply to.
type SubjectType string

const (
	SubjectUser SubjectType = "user"
	SubjectNGO  SubjectType = "ngo"
)

// Snapshot bundles the signals a badge rule evaluates against.
type Snapshot struct {
	Activity     *signals.ActivitySignals
	Feedback     *signals.FeedbackSignals
	Verification *signals.VerificationSignals
}

// BadgeDefinition is a catalog entry. Rules are independent predicates over a
// signal snapshot; no rule depends on another badge being awarded.
type BadgeDefinition struct {
	Key         BadgeKey             `json:"key"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	SubjectType SubjectType          `json:"subject_type"`
	Rule        func(*Snapshot) bool `json:"-"`
}

// BadgeAssignment records an awarded badge. Assignments are append-only; a
// (subject, badge) pair is awarded at most once.
type BadgeAssignment struct {
	ID          uuid.UUID   `json:"id"`
	SubjectID   uuid.UUID   `json:"subject_id"`
	SubjectType SubjectType `json:"subject_type"`
	BadgeKey    BadgeKey    `json:"badge_key"`
	AwardedAt   time.Time   `json:"awarded_at"`
}
