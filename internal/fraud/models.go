package fraud

import (
	"time"

	"github.com/google/uuid"
)

// FlagStatus is the lifecycle state of a fraud flag. RESOLVED is terminal.
type FlagStatus string

const (
	FlagStatusPending  FlagStatus = "PENDING"
	FlagStatusResolved FlagStatus = "RESOLVED"
)

// Resolution is the reviewer's verdict on a flag.
type Resolution string

const (
	ResolutionFalsePositive Resolution = "false_positive"
	ResolutionConfirmed     Resolution = "confirmed"
)

// Action is the enforcement applied when resolving a flag.
type Action string

const (
	ActionNone    Action = "none"
	ActionWarning Action = "warning"
	ActionSuspend Action = "suspend"
)

// FlagType categorizes a flag by its dominant anomaly signal.
type FlagType string

const (
	FlagTypeVelocityAbuse      FlagType = "VELOCITY_ABUSE"
	FlagTypeLowCompletion      FlagType = "LOW_COMPLETION"
	FlagTypeNewAccountActivity FlagType = "NEW_ACCOUNT_ACTIVITY"
	FlagTypeParticipationSpam  FlagType = "PARTICIPATION_SPAM"
	FlagTypeReportAnomaly      FlagType = "REPORT_ANOMALY"
)

// RiskBand buckets a risk score for triage.
type RiskBand string

const (
	BandLow      RiskBand = "low"
	BandModerate RiskBand = "moderate"
	BandElevated RiskBand = "elevated"
	BandHigh     RiskBand = "high"
)

// Band maps a risk score onto its triage band. Boundaries are inclusive on
// the lower edge.
func Band(riskScore float64) RiskBand {
	switch {
	case riskScore >= 70:
		return BandHigh
	case riskScore >= 50:
		return BandElevated
	case riskScore >= 25:
		return BandModerate
	default:
		return BandLow
	}
}

// FraudFlag is a pending or resolved fraud case against a user.
type FraudFlag struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	RiskScore   float64     `json:"risk_score"`
	FlagType    FlagType    `json:"flag_type"`
	Band        RiskBand    `json:"band"`
	Description string      `json:"description"`
	Reasons     []string    `json:"reasons"`
	Status      FlagStatus  `json:"status"`
	Resolution  *Resolution `json:"resolution,omitempty"`
	Action      *Action     `json:"action,omitempty"`
	ResolvedBy  *uuid.UUID  `json:"resolved_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	ResolvedAt  *time.Time  `json:"resolved_at,omitempty"`
}

// RiskComponent is one weighted anomaly signal in an assessment.
type RiskComponent struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
}

// Contribution is the component's share of the final score.
func (c RiskComponent) Contribution() float64 {
	return c.Value * c.Weight
}

// RiskAssessment is the outcome of evaluating a user's fraud risk.
type RiskAssessment struct {
	UserID      uuid.UUID       `json:"user_id"`
	RiskScore   float64         `json:"risk_score"`
	Band        RiskBand        `json:"band"`
	Components  []RiskComponent `json:"components"`
	Flagged     bool            `json:"flagged"`
	FlagID      *uuid.UUID      `json:"flag_id,omitempty"`
	EvaluatedAt time.Time       `json:"evaluated_at"`
}

// ResolveFlagRequest is the admin resolution payload.
type ResolveFlagRequest struct {
	Resolution Resolution `json:"resolution" binding:"required,oneof=false_positive confirmed"`
	Action     Action     `json:"action" binding:"required,oneof=none warning suspend"`
}

// Stats summarizes flag volumes for the admin dashboard.
type Stats struct {
	PendingFlags   int64   `json:"pending_flags"`
	ResolvedFlags  int64   `json:"resolved_flags"`
	ConfirmedFlags int64   `json:"confirmed_flags"`
	FalsePositives int64   `json:"false_positives"`
	SuspendedUsers int64   `json:"suspended_users"`
	ConfirmRate    float64 `json:"confirm_rate"`
}
