package enums

type ReportReason string

const (
	ReportReasonSpam          ReportReason = "SPAM"
	ReportReasonAbuse         ReportReason = "ABUSE"
	ReportReasonCheating      ReportReason = "CHEATING"
	ReportReasonImpersonation ReportReason = "IMPERSONATION"
	ReportReasonHarassment    ReportReason = "HARASSMENT"
	ReportReasonOther         ReportReason = "OTHER"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReportReasonSpam,
		ReportReasonAbuse,
		ReportReasonCheating,
		ReportReasonImpersonation,
		ReportReasonHarassment,
		ReportReasonOther:
		return true
	}
	return false
}
