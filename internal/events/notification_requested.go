package events

import "time"

const NotificationTopic = "hr.notification.request.v1"

const NotificationRequested = "notification.requested"

const (
	TemplateLeaveApproval   = "leave_approval"
	TemplateLeaveEscalation = "leave_escalation"
	TemplateLeaveRejection  = "leave_rejection"
)

type NotificationRequestedEvent struct {
	EventType   string            `json:"event_type"`
	CompanyID   string            `json:"company_id"`
	RecipientID string            `json:"recipient_id"`
	Template    string            `json:"template"`
	Payload     map[string]string `json:"payload"`
	OccurredAt  time.Time         `json:"occurred_at"`
}
