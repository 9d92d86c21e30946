package rules

import "github.com/LURY-TMP/matzon-platform/internal/domain/enums"

// TrustThreshold is the minimum score for a level.
type TrustThreshold struct {
	Level    enums.TrustLevel
	MinScore float64
}

// Reputation holds the scoring tables. Build one with DefaultReputation and
// treat it as read-only; accessors never expose the underlying maps.
type Reputation struct {
	values      map[enums.ReputationEventType]float64
	thresholds  []TrustThreshold
	followLimit map[enums.TrustLevel]int
	reportQuota map[enums.TrustLevel]int
}

func DefaultReputation() Reputation {
	return Reputation{
		values: map[enums.ReputationEventType]float64{
			enums.ReputationFollowReceived:  2,
			enums.ReputationFollowGiven:     0.5,
			enums.ReputationMatchWin:        5,
			enums.ReputationMatchLoss:       1,
			enums.ReputationMatchPlayed:     2,
			enums.ReputationTournamentJoin:  3,
			enums.ReputationTournamentTop3:  15,
			enums.ReputationTournamentWin:   25,
			enums.ReputationReportReceived:  -5,
			enums.ReputationReportValidated: -20,
			enums.ReputationSpamDetected:    -15,
			enums.ReputationAccountAgeBonus: 10,
			enums.ReputationStreakBonus:     8,
		},
		// highest first
		thresholds: []TrustThreshold{
			{Level: enums.TrustLevelElite, MinScore: 2000},
			{Level: enums.TrustLevelVeteran, MinScore: 500},
			{Level: enums.TrustLevelTrusted, MinScore: 100},
			{Level: enums.TrustLevelBasic, MinScore: 25},
		},
		followLimit: map[enums.TrustLevel]int{
			enums.TrustLevelNew:     20,
			enums.TrustLevelBasic:   50,
			enums.TrustLevelTrusted: 200,
			enums.TrustLevelVeteran: 500,
			enums.TrustLevelElite:   2000,
		},
		reportQuota: map[enums.TrustLevel]int{
			enums.TrustLevelNew:     3,
			enums.TrustLevelBasic:   5,
			enums.TrustLevelTrusted: 10,
			enums.TrustLevelVeteran: 20,
			enums.TrustLevelElite:   50,
		},
	}
}

// EventValue is zero for unknown types.
func (r Reputation) EventValue(t enums.ReputationEventType) float64 {
	return r.values[t]
}

func (r Reputation) TrustLevel(score float64) enums.TrustLevel {
	for _, th := range r.thresholds {
		if score >= th.MinScore {
			return th.Level
		}
	}
	return enums.TrustLevelNew
}

func (r Reputation) FollowLimit(level enums.TrustLevel) int {
	if limit, ok := r.followLimit[level]; ok {
		return limit
	}
	return r.followLimit[enums.TrustLevelNew]
}

func (r Reputation) ReportQuota(level enums.TrustLevel) int {
	if quota, ok := r.reportQuota[level]; ok {
		return quota
	}
	return r.reportQuota[enums.TrustLevelNew]
}

func (r Reputation) Thresholds() []TrustThreshold {
	out := make([]TrustThreshold, len(r.thresholds))
	copy(out, r.thresholds)
	return out
}
