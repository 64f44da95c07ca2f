package signals

import (
	"time"

	"github.com/google/uuid"
)

// NGOStatus is the verification state of an NGO account.
type NGOStatus string

const (
	NGOStatusNone     NGOStatus = "none"
	NGOStatusPending  NGOStatus = "pending"
	NGOStatusVerified NGOStatus = "verified"
)

// ActivitySignals captures a user's giveaway activity counters.
type ActivitySignals struct {
	UserID                     uuid.UUID `json:"user_id"`
	GiveawaysCreated           int       `json:"giveaways_created"`
	CompletedGiveaways         int       `json:"completed_giveaways"`
	CompletedPickupsAsGiver    int       `json:"completed_pickups_as_giver"`
	CompletedPickupsAsReceiver int       `json:"completed_pickups_as_receiver"`
	ParticipationCount         int       `json:"participation_count"`
	WinCount                   int       `json:"win_count"`
	RecentGiveaways7d          int       `json:"recent_giveaways_7d"`
	RecentCompletions7d        int       `json:"recent_completions_7d"`
	RecentCompletions90d       int       `json:"recent_completions_90d"`
	AvgResponseHours           float64   `json:"avg_response_hours"`
	AccountAgeDays             int       `json:"account_age_days"`
	ReportCount                int       `json:"report_count"`
	City                       string    `json:"city"`
	Active                     bool      `json:"active"`
}

// FeedbackSignals captures the ratings and feedback a user has received.
type FeedbackSignals struct {
	UserID             uuid.UUID `json:"user_id"`
	RatingCount        int       `json:"rating_count"`
	AverageRating      float64   `json:"average_rating"`
	NegativeCount      int       `json:"negative_count"`
	FlaggedCount       int       `json:"flagged_count"`
	WouldRecommendRate float64   `json:"would_recommend_rate"`
}

// VerificationSignals captures a user's identity verification state.
type VerificationSignals struct {
	UserID        uuid.UUID `json:"user_id"`
	EmailVerified bool      `json:"email_verified"`
	PhoneVerified bool      `json:"phone_verified"`
	IDVerified    bool      `json:"id_verified"`
	NGOStatus     NGOStatus `json:"ngo_status"`
}

// NGOCandidate is an NGO eligible for follow suggestions.
type NGOCandidate struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	City          string    `json:"city"`
	FocusAreas    []string  `json:"focus_areas"`
	FollowerCount int       `json:"follower_count"`
	TrustScore    float64   `json:"trust_score"`
	Verified      bool      `json:"verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// EngagementSignals captures what a user has interacted with, used to
// personalize suggestion ranking.
type EngagementSignals struct {
	UserID         uuid.UUID      `json:"user_id"`
	City           string         `json:"city"`
	CategoryCounts map[string]int `json:"category_counts"`
	FollowedNGOIDs []uuid.UUID    `json:"followed_ngo_ids"`
	MutedNGOIDs    []uuid.UUID    `json:"muted_ngo_ids"`
}

// HasSignals reports whether the user has any engagement history to
// personalize on.
func (e *EngagementSignals) HasSignals() bool {
	return len(e.CategoryCounts) > 0 || len(e.FollowedNGOIDs) > 0
}

// CandidateFilter narrows the NGO candidate pool.
type CandidateFilter struct {
	City         string
	VerifiedOnly bool
	Limit        int
}
