package enums

type ReportTargetType string

const (
	ReportTargetUser       ReportTargetType = "USER"
	ReportTargetMatch      ReportTargetType = "MATCH"
	ReportTargetTournament ReportTargetType = "TOURNAMENT"
	ReportTargetComment    ReportTargetType = "COMMENT"
)

func (t ReportTargetType) Valid() bool {
	switch t {
	case ReportTargetUser, ReportTargetMatch, ReportTargetTournament, ReportTargetComment:
		return true
	}
	return false
}

// ReportStatus moves PENDING -> (REVIEWING) -> CONFIRMED | REJECTED.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "PENDING"
	ReportStatusReviewing ReportStatus = "REVIEWING"
	ReportStatusConfirmed ReportStatus = "CONFIRMED"
	ReportStatusRejected  ReportStatus = "REJECTED"
)

func (s ReportStatus) Open() bool {
	return s == ReportStatusPending || s == ReportStatusReviewing
}

func (s ReportStatus) Terminal() bool {
	return s == ReportStatusConfirmed || s == ReportStatusRejected
}
