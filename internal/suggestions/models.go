package suggestions

import (
	"time"

	"github.com/google/uuid"
)

// Signal names used in the confidence blend and the persisted contribution map.
const (
	SignalPopularity           = "popularity"
	SignalCategoryMatch        = "category_match"
	SignalLocationProximity    = "location_proximity"
	SignalParticipationHistory = "participation_history"
	SignalNGOTrust             = "ngo_trust"
)

// FollowSuggestion is a ranked NGO recommendation for a user. At most one
// active (non-expired) suggestion exists per (user, NGO) pair; expired
// suggestions are eligible for regeneration.
type FollowSuggestion struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	NGOID           uuid.UUID          `json:"ngo_id"`
	NGOName         string             `json:"ngo_name"`
	ConfidenceScore float64            `json:"confidence_score"`
	SignalWeight    map[string]float64 `json:"signal_weight"`
	Reason          string             `json:"reason"`
	IsViewed        bool               `json:"is_viewed"`
	IsFollowed      bool               `json:"is_followed"`
	IsIgnored       bool               `json:"is_ignored"`
	CreatedAt       time.Time          `json:"created_at"`
	ExpiresAt       time.Time          `json:"expires_at"`
}

// IsActive reports whether the suggestion has not yet expired.
func (s *FollowSuggestion) IsActive(now time.Time) bool {
	return s.ExpiresAt.After(now)
}
