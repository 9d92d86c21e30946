package enums

type ReputationEventType string

const (
	ReputationFollowReceived  ReputationEventType = "FOLLOW_RECEIVED"
	ReputationFollowGiven     ReputationEventType = "FOLLOW_GIVEN"
	ReputationMatchWin        ReputationEventType = "MATCH_WIN"
	ReputationMatchLoss       ReputationEventType = "MATCH_LOSS"
	ReputationMatchPlayed     ReputationEventType = "MATCH_PLAYED"
	ReputationTournamentJoin  ReputationEventType = "TOURNAMENT_JOIN"
	ReputationTournamentTop3  ReputationEventType = "TOURNAMENT_TOP3"
	ReputationTournamentWin   ReputationEventType = "TOURNAMENT_WIN"
	ReputationReportReceived  ReputationEventType = "REPORT_RECEIVED"
	ReputationReportValidated ReputationEventType = "REPORT_VALIDATED"
	ReputationSpamDetected    ReputationEventType = "SPAM_DETECTED"
	ReputationAccountAgeBonus ReputationEventType = "ACCOUNT_AGE_BONUS"
	ReputationStreakBonus     ReputationEventType = "STREAK_BONUS"
)
