package audit

import (
	"context"
	"time"

	id "civic/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal or financial significance:
	// payments, role changes, budget outcomes. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers authentication and access-control events.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine workflow activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// UserID is the user the event is about (complaint filer, bill owner).
	UserID id.UserID `json:"user_id"`
	// ActorID is who performed the action when different from UserID,
	// e.g. a supervisor reassigning a complaint.
	ActorID   string `json:"actor_id,omitempty"`
	Subject   string `json:"subject"`
	Action    string `json:"action"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	// Identity events
	EventUserRegistered  AuditEvent = "user_registered"
	EventUserCreated     AuditEvent = "user_created"
	EventLoginSucceeded  AuditEvent = "login_succeeded"
	EventLoginFailed     AuditEvent = "login_failed"
	EventLoggedOut       AuditEvent = "logged_out"
	EventRoleChanged     AuditEvent = "role_changed"
	EventUserDeactivated AuditEvent = "user_deactivated"
	EventUserReactivated AuditEvent = "user_reactivated"

	// Complaint events
	EventComplaintFiled      AuditEvent = "complaint_filed"
	EventComplaintAssigned   AuditEvent = "complaint_assigned"
	EventComplaintReassigned AuditEvent = "complaint_reassigned"
	EventComplaintStatus     AuditEvent = "complaint_status_changed"
	EventSLAPolicyChanged    AuditEvent = "sla_policy_changed"

	// Workforce events
	EventStaffProfileSaved      AuditEvent = "staff_profile_saved"
	EventSupervisorProfileSaved AuditEvent = "supervisor_profile_saved"

	// Billing events
	EventBillIssued    AuditEvent = "bill_issued"
	EventBillPaid      AuditEvent = "bill_paid"
	EventBillCancelled AuditEvent = "bill_cancelled"

	// Content, budgeting and reporting events
	EventNoticeCreated      AuditEvent = "notice_created"
	EventNoticeUpdated      AuditEvent = "notice_updated"
	EventNoticePublished    AuditEvent = "notice_published"
	EventNoticeArchived     AuditEvent = "notice_archived"
	EventCycleCreated       AuditEvent = "budget_cycle_created"
	EventCycleAdvanced      AuditEvent = "budget_cycle_advanced"
	EventProposalSubmitted  AuditEvent = "proposal_submitted"
	EventProposalReviewed   AuditEvent = "proposal_reviewed"
	EventVoteCast           AuditEvent = "vote_cast"
	EventVoteWithdrawn      AuditEvent = "vote_withdrawn"
	EventCycleClosed        AuditEvent = "budget_cycle_closed"
	EventPreferencesUpdated AuditEvent = "notification_preferences_updated"
	EventReportScheduled    AuditEvent = "report_scheduled"
	EventReportUnscheduled  AuditEvent = "report_unscheduled"

	// Rate limit events
	EventRateLimitExceeded    AuditEvent = "rate_limit_exceeded"
	EventAuthLockoutTriggered AuditEvent = "auth_lockout_triggered"
	EventAuthLockoutCleared   AuditEvent = "auth_lockout_cleared"
	EventSessionsRevoked      AuditEvent = "sessions_revoked"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventRoleChanged:     CategoryCompliance,
	EventUserDeactivated: CategoryCompliance,
	EventBillPaid:        CategoryCompliance,
	EventBillCancelled:   CategoryCompliance,
	EventCycleClosed:     CategoryCompliance,
	EventVoteCast:        CategoryCompliance,
	EventVoteWithdrawn:   CategoryCompliance,

	EventLoginFailed:       CategorySecurity,
	EventLoggedOut:         CategorySecurity,
	EventUserReactivated:   CategorySecurity,
	EventRateLimitExceeded: CategorySecurity,

	EventAuthLockoutTriggered: CategorySecurity,
	EventAuthLockoutCleared:   CategorySecurity,
	EventSessionsRevoked:      CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
