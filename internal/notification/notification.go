package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"go-leave-engine/internal/events"
)

// Deliverer pushes one rendered notification to its channel. The logging
// implementation below is the default; mail or chat integrations satisfy
// the same interface.
type Deliverer interface {
	Deliver(ctx context.Context, recipientID, subject, body string) error
}

type Service interface {
	Send(ctx context.Context, event events.NotificationRequestedEvent) error
}

type service struct {
	deliverer Deliverer
	logger    *zap.Logger
}

func NewService(deliverer Deliverer, logger ...*zap.Logger) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	return &service{deliverer: deliverer, logger: l}
}

func (s *service) Send(ctx context.Context, event events.NotificationRequestedEvent) error {
	subject, body, err := render(event.Template, event.Payload)
	if err != nil {
		return err
	}

	if err := s.deliverer.Deliver(ctx, event.RecipientID, subject, body); err != nil {
		return err
	}

	s.logger.Info("notification delivered",
		zap.String("recipient_id", event.RecipientID),
		zap.String("template", event.Template),
		zap.String("company_id", event.CompanyID),
	)
	return nil
}

func render(template string, payload map[string]string) (subject, body string, err error) {
	leaveType := payload["leave_type"]
	start := payload["start_date"]
	end := payload["end_date"]

	switch template {
	case events.TemplateLeaveApproval:
		subject = "Leave request approved"
		body = fmt.Sprintf("Your %s leave request (%s to %s) has been approved.", leaveType, start, end)
	case events.TemplateLeaveEscalation:
		subject = "Leave request awaiting your review"
		body = fmt.Sprintf("A %s leave request (%s to %s) needs your decision.", leaveType, start, end)
	case events.TemplateLeaveRejection:
		subject = "Leave request rejected"
		body = fmt.Sprintf("Your %s leave request has been rejected.", leaveType)
	default:
		return "", "", fmt.Errorf("unknown notification template: %s", template)
	}
	return subject, body, nil
}

// LogDeliverer writes notifications to the application log. Used when no
// external channel is configured.
type LogDeliverer struct {
	logger *zap.Logger
}

func NewLogDeliverer(logger ...*zap.Logger) *LogDeliverer {
	l := zap.L().Named("notification.log_deliverer")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.log_deliverer")
	}
	return &LogDeliverer{logger: l}
}

func (d *LogDeliverer) Deliver(_ context.Context, recipientID, subject, body string) error {
	d.logger.Info("notification",
		zap.String("recipient_id", recipientID),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
