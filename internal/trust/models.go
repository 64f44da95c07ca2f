package trust

import (
	"time"

	"github.com/google/uuid"
)

// TrustLevel is the ordered tier derived from the total score.
type TrustLevel string

const (
	TrustLevelNew           TrustLevel = "NEW"
	TrustLevelEmerging      TrustLevel = "EMERGING"
	TrustLevelTrusted       TrustLevel = "TRUSTED"
	TrustLevelHighlyTrusted TrustLevel = "HIGHLY_TRUSTED"
)

// Rank orders trust levels from NEW (0) upward.
func (l TrustLevel) Rank() int {
	switch l {
	case TrustLevelEmerging:
		return 1
	case TrustLevelTrusted:
		return 2
	case TrustLevelHighlyTrusted:
		return 3
	default:
		return 0
	}
}

// LevelThresholds are the minimum total scores for each tier. Boundaries are
// inclusive and checked high to low.
type LevelThresholds struct {
	Emerging      float64
	Trusted       float64
	HighlyTrusted float64
}

// DefaultLevelThresholds returns the standard tier boundaries.
func DefaultLevelThresholds() LevelThresholds {
	return LevelThresholds{Emerging: 30, Trusted: 60, HighlyTrusted: 85}
}

// LevelForScore maps a total score onto a trust level.
func LevelForScore(score float64, t LevelThresholds) TrustLevel {
	switch {
	case score >= t.HighlyTrusted:
		return TrustLevelHighlyTrusted
	case score >= t.Trusted:
		return TrustLevelTrusted
	case score >= t.Emerging:
		return TrustLevelEmerging
	default:
		return TrustLevelNew
	}
}

// TrustScore is a user's computed trust snapshot. CompletionRate and
// ResponseTimeHours are diagnostics carried alongside the score; they never
// feed into TotalScore.
type TrustScore struct {
	UserID            uuid.UUID  `json:"user_id"`
	GivingScore       float64    `json:"giving_score"`
	ReceivingScore    float64    `json:"receiving_score"`
	FeedbackScore     float64    `json:"feedback_score"`
	TotalScore        float64    `json:"total_score"`
	Level             TrustLevel `json:"level"`
	CompletionRate    float64    `json:"completion_rate"`
	ResponseTimeHours float64    `json:"response_time_hours"`
	ComputedAt        time.Time  `json:"computed_at"`
}

// IsFresh reports whether the snapshot is within the staleness window.
func (s *TrustScore) IsFresh(staleness time.Duration, now time.Time) bool {
	return now.Sub(s.ComputedAt) < staleness
}

// LevelCount is one bucket of the trust-level distribution.
type LevelCount struct {
	Level TrustLevel `json:"level"`
	Count int64      `json:"count"`
}
