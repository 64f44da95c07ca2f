package badges

import "github.com/pepoapp/trust-engine/internal/signals"

// Catalog returns the badge definitions in award-evaluation order.
func Catalog() []BadgeDefinition {
	return []BadgeDefinition{
		{
			Key:         BadgeFirstGiver,
			Name:        "First Giver",
			Description: "Completed a first giveaway",
			SubjectType: SubjectUser,
			Rule: func(s *Snapshot) bool {
				return s.Activity.CompletedGiveaways >= 1
			},
		},
		{
			Key:         BadgeFirstReceiver,
			Name:        "First Receiver",
			Description: "Completed a first pickup as receiver",
			SubjectType: SubjectUser,
			Rule: func(s *Snapshot) bool {
				return s.Activity.CompletedPickupsAsReceiver >= 1
			},
		},
		{
			Key:         BadgeConsistentGiver,
			Name:        "Consistent Giver",
			Description: "Completed five or more giveaways in the last 90 days",
			SubjectType: SubjectUser,
			Rule: func(s *Snapshot) bool {
				return s.Activity.RecentCompletions90d >= 5
			},
		},
		{
			Key:         BadgeTrustedGiver,
			Name:        "Trusted Giver",
			Description: "Received ten or more positive ratings",
			SubjectType: SubjectUser,
			Rule: func(s *Snapshot) bool {
				return s.Feedback.RatingCount-s.Feedback.NegativeCount >= 10
			},
		},
		{
			Key:         BadgeFullyVerified,
			Name:        "Fully Verified",
			Description: "Verified email, phone and identity",
			SubjectType: SubjectUser,
			Rule: func(s *Snapshot) bool {
				return s.Verification.EmailVerified &&
					s.Verification.PhoneVerified &&
					s.Verification.IDVerified
			},
		},
		{
			Key:         BadgeVerifiedNGO,
			Name:        "Verified NGO",
			Description: "Organization passed NGO verification",
			SubjectType: SubjectNGO,
			Rule: func(s *Snapshot) bool {
				return s.Verification.NGOStatus == signals.NGOStatusVerified
			},
		},
	}
}

// Definition looks up a catalog entry by key.
func Definition(key BadgeKey) (BadgeDefinition, bool) {
	for _, def := range Catalog() {
		if def.Key == key {
			return def, true
		}
	}
	return BadgeDefinition{}, false
}
