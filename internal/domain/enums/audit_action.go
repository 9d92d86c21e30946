package enums

type AuditAction string

const (
	AuditReportCreated    AuditAction = "REPORT_CREATED"
	AuditReportResolved   AuditAction = "REPORT_RESOLVED"
	AuditPenaltyApplied   AuditAction = "PENALTY_APPLIED"
	AuditTrustOverride    AuditAction = "TRUST_OVERRIDE"
	AuditReputationRecalc AuditAction = "REPUTATION_RECALC"
	AuditUserBanned       AuditAction = "USER_BANNED"
	AuditUserSuspended    AuditAction = "USER_SUSPENDED"
	AuditUserReinstated   AuditAction = "USER_REINSTATED"
	AuditAdminOverride    AuditAction = "ADMIN_OVERRIDE"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditReportCreated,
		AuditReportResolved,
		AuditPenaltyApplied,
		AuditTrustOverride,
		AuditReputationRecalc,
		AuditUserBanned,
		AuditUserSuspended,
		AuditUserReinstated,
		AuditAdminOverride:
		return true
	}
	return false
}
