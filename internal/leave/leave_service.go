package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-leave-engine/internal/balance"
	balanceerrors "go-leave-engine/internal/balance/errors"
	"go-leave-engine/internal/decision"
	"go-leave-engine/internal/events"
	"go-leave-engine/internal/hierarchy"
	hierarchyerrors "go-leave-engine/internal/hierarchy/errors"
	leaveerrors "go-leave-engine/internal/leave/errors"
	"go-leave-engine/internal/messaging/kafka"
	"go-leave-engine/internal/policy"
	"go-leave-engine/internal/shared/contextutil"
	"go-leave-engine/internal/shared/counter"
	"go-leave-engine/internal/shared/txretry"
)

const (
	txAttempts       = 3
	defaultSLAWindow = 48 * time.Hour
	dateLayout       = "2006-01-02"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, companyID, actorID string, req SubmitLeaveRequest) (LeaveResponse, error)
	Approve(ctx context.Context, companyID, actorID, id string) (LeaveResponse, error)
	Reject(ctx context.Context, companyID, actorID, id string, reason string) (LeaveResponse, error)
	GetByID(ctx context.Context, companyID, id string) (LeaveResponse, error)
	GetAll(ctx context.Context, companyID, status string, limit, offset int) ([]LeaveResponse, int64, error)
	ListPendingApprovals(ctx context.Context, companyID, approverID string) ([]LeaveResponse, error)
}

// Deps groups the collaborators the decision flow orchestrates.
type Deps struct {
	BalanceRepo      balance.Repository
	BalanceService   balance.Service
	PolicyService    policy.Service
	Engine           *decision.Engine
	HierarchyService hierarchy.Service
	CounterRepo      counter.Repository
	OutboxRepo       kafka.OutboxRepository
	SLAWindow        time.Duration
}

type service struct {
	db   *sql.DB
	repo Repository

	balanceRepo      balance.Repository
	balanceService   balance.Service
	policyService    policy.Service
	engine           *decision.Engine
	hierarchyService hierarchy.Service
	counterRepo      counter.Repository
	outboxRepo       kafka.OutboxRepository

	slaWindow time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(db *sql.DB, repo Repository, deps Deps, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	slaWindow := deps.SLAWindow
	if slaWindow <= 0 {
		slaWindow = defaultSLAWindow
	}
	return &service{
		db:               db,
		repo:             repo,
		balanceRepo:      deps.BalanceRepo,
		balanceService:   deps.BalanceService,
		policyService:    deps.PolicyService,
		engine:           deps.Engine,
		hierarchyService: deps.HierarchyService,
		counterRepo:      deps.CounterRepo,
		outboxRepo:       deps.OutboxRepo,
		slaWindow:        slaWindow,
		now:              time.Now,
		logger:           l,
	}
}

func (s *service) Submit(ctx context.Context, companyID, actorID string, req SubmitLeaveRequest) (LeaveResponse, error) {
	in, err := s.parseSubmission(req)
	if err != nil {
		return LeaveResponse{}, err
	}

	belongs, err := s.repo.EmployeeBelongsToCompany(ctx, companyID, in.EmployeeID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !belongs {
		return LeaveResponse{}, leaveerrors.ErrEmployeeNotInCompany
	}

	overlapping, err := s.repo.HasOverlappingRequest(ctx, companyID, in.EmployeeID, in.StartDate, in.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	if overlapping {
		return LeaveResponse{}, leaveerrors.ErrOverlappingRequest
	}

	// Everything the rules need is read before the transaction opens, so
	// the lock on the balance row stays as short as possible.
	ruleSet, err := s.policyService.RuleSetFor(ctx, companyID)
	if err != nil {
		return LeaveResponse{}, err
	}
	teamCtx, err := s.repo.TeamContextFor(ctx, companyID, in.EmployeeID, in.StartDate, in.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	chain, err := s.hierarchyService.ResolveChain(ctx, companyID, in.EmployeeID)
	if err != nil {
		return LeaveResponse{}, err
	}

	seq, err := s.counterRepo.GetNextValue(ctx, companyID, counter.TypeLeaveRequest)
	if err != nil {
		return LeaveResponse{}, err
	}

	now := s.now()
	year := in.StartDate.Year()

	var (
		request *LeaveRequest
		dec     decision.Decision
	)
	err = txretry.Do(ctx, s.logger, txAttempts, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		qtxBalance := s.balanceRepo.WithTx(tx)
		qtxLeave := s.repo.WithTx(tx)
		qtxOutbox := s.outboxRepo.WithTx(tx)

		bal, err := s.balanceService.GetOrCreateForUpdate(ctx, qtxBalance, companyID, in.EmployeeID, in.LeaveType, year)
		if err != nil {
			return err
		}

		dec = s.engine.Evaluate(in, ruleSet, decision.EvalContext{
			Today:                   now,
			TeamHeadcount:           teamCtx.Headcount,
			ConcurrentApprovedLeave: teamCtx.ConcurrentLeave,
			BalanceAvailable:        bal.Available(),
		})

		if dec.Status == decision.StatusApproved {
			if err := bal.ConsumeDirect(in.TotalDays); err != nil {
				return err
			}
		} else {
			if err := bal.Reserve(in.TotalDays); err != nil {
				return err
			}
		}
		if err := qtxBalance.UpdateAmounts(ctx, bal); err != nil {
			return err
		}

		request, err = s.buildRequest(companyID, actorID, seq, in, req.Reason, dec, chain, now)
		if err != nil {
			return err
		}
		if err := qtxLeave.Insert(ctx, request); err != nil {
			return err
		}

		if err := s.enqueueSubmissionEvents(ctx, qtxOutbox, request, dec, actorID, now); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return LeaveResponse{}, err
	}

	s.logger.Info("leave request decided",
		zap.String("request_id", request.ID.String()),
		zap.String("company_id", companyID),
		zap.String("employee_id", in.EmployeeID),
		zap.String("leave_type", in.LeaveType),
		zap.String("status", request.Status),
		zap.Float64("confidence", request.Confidence),
		zap.Int("violations", len(dec.Violations)),
	)

	resp := toLeaveResponse(request)
	resp.Trace = dec.Trace
	resp.Violations = violationMessages(dec.Violations)
	resp.ApproverChain = chainStrings(chain)
	return resp, nil
}

func (s *service) Approve(ctx context.Context, companyID, actorID, id string) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrLeaveRequestNotFound
	}
	approver, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrNotCurrentApprover
	}

	var request *LeaveRequest
	err = txretry.Do(ctx, s.logger, txAttempts, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		qtxLeave := s.repo.WithTx(tx)
		qtxBalance := s.balanceRepo.WithTx(tx)
		qtxOutbox := s.outboxRepo.WithTx(tx)

		l, err := qtxLeave.GetForUpdate(ctx, companyID, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return leaveerrors.ErrLeaveRequestNotFound
			}
			return err
		}
		if err := checkTransition(l.Status, StatusApproved); err != nil {
			return err
		}
		if approver == l.EmployeeID {
			return leaveerrors.ErrNotCurrentApprover
		}

		bal, err := qtxBalance.GetForUpdate(ctx, companyID, l.EmployeeID.String(), l.LeaveType, l.StartDate.Year())
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return balanceerrors.ErrBalanceNotFound
			}
			return err
		}
		if err := bal.Commit(l.TotalDays); err != nil {
			return err
		}
		if err := qtxBalance.UpdateAmounts(ctx, bal); err != nil {
			return err
		}

		now := s.now()
		l.Status = StatusApproved
		l.ApprovedBy = &approver
		l.ApprovedAt = &now
		if err := qtxLeave.UpdateTransition(ctx, l); err != nil {
			return err
		}

		if err := s.enqueueDecisionEvents(ctx, qtxOutbox, l, events.LeaveApproved, actorID, now,
			events.BalanceConsumed, l.TotalDays, l.TotalDays.Neg(),
			events.TemplateLeaveApproval); err != nil {
			return err
		}

		request = l
		return tx.Commit()
	})
	if err != nil {
		return LeaveResponse{}, err
	}

	s.logger.Info("leave request approved",
		zap.String("request_id", request.ID.String()),
		zap.String("company_id", companyID),
		zap.String("approved_by", actorID),
	)
	return toLeaveResponse(request), nil
}

func (s *service) Reject(ctx context.Context, companyID, actorID, id string, reason string) (LeaveResponse, error) {
	if strings.TrimSpace(reason) == "" {
		return LeaveResponse{}, leaveerrors.ErrRejectionReasonRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrLeaveRequestNotFound
	}

	var request *LeaveRequest
	err := txretry.Do(ctx, s.logger, txAttempts, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		qtxLeave := s.repo.WithTx(tx)
		qtxBalance := s.balanceRepo.WithTx(tx)
		qtxOutbox := s.outboxRepo.WithTx(tx)

		l, err := qtxLeave.GetForUpdate(ctx, companyID, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return leaveerrors.ErrLeaveRequestNotFound
			}
			return err
		}
		if err := checkTransition(l.Status, StatusRejected); err != nil {
			return err
		}

		bal, err := qtxBalance.GetForUpdate(ctx, companyID, l.EmployeeID.String(), l.LeaveType, l.StartDate.Year())
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return balanceerrors.ErrBalanceNotFound
			}
			return err
		}
		if err := bal.Release(l.TotalDays); err != nil {
			return err
		}
		if err := qtxBalance.UpdateAmounts(ctx, bal); err != nil {
			return err
		}

		now := s.now()
		l.Status = StatusRejected
		l.RejectionReason = &reason
		l.RejectedAt = &now
		if err := qtxLeave.UpdateTransition(ctx, l); err != nil {
			return err
		}

		if err := s.enqueueDecisionEvents(ctx, qtxOutbox, l, events.LeaveRejected, actorID, now,
			events.BalanceReleased, decimal.Zero, l.TotalDays.Neg(),
			events.TemplateLeaveRejection); err != nil {
			return err
		}

		request = l
		return tx.Commit()
	})
	if err != nil {
		return LeaveResponse{}, err
	}

	s.logger.Info("leave request rejected",
		zap.String("request_id", request.ID.String()),
		zap.String("company_id", companyID),
		zap.String("rejected_by", actorID),
	)
	return toLeaveResponse(request), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (LeaveResponse, error) {
	l, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err)
	}

	resp := toLeaveResponse(l)
	if len(l.RuleTrace) > 0 {
		var trace []decision.RuleTrace
		if err := json.Unmarshal(l.RuleTrace, &trace); err == nil {
			resp.Trace = trace
		}
	}
	return resp, nil
}

func (s *service) GetAll(ctx context.Context, companyID, status string, limit, offset int) ([]LeaveResponse, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	requests, total, err := s.repo.FindAllByCompany(ctx, companyID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]LeaveResponse, len(requests))
	for i := range requests {
		resp[i] = toLeaveResponse(&requests[i])
	}
	return resp, total, nil
}

func (s *service) ListPendingApprovals(ctx context.Context, companyID, approverID string) ([]LeaveResponse, error) {
	requests, err := s.repo.FindByApprover(ctx, companyID, approverID)
	if err != nil {
		return nil, err
	}

	resp := make([]LeaveResponse, len(requests))
	for i := range requests {
		resp[i] = toLeaveResponse(&requests[i])
	}
	return resp, nil
}

func (s *service) parseSubmission(req SubmitLeaveRequest) (decision.EvalInput, error) {
	var in decision.EvalInput

	if _, err := uuid.Parse(req.EmployeeID); err != nil {
		return in, leaveerrors.ErrEmployeeNotInCompany
	}
	if !policy.KnownLeaveType(req.LeaveType) {
		return in, leaveerrors.ErrUnknownLeaveType
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return in, leaveerrors.ErrInvalidDateRange
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return in, leaveerrors.ErrInvalidDateRange
	}
	if end.Before(start) {
		return in, leaveerrors.ErrInvalidDateRange
	}
	if req.TotalDays.Sign() <= 0 {
		return in, leaveerrors.ErrNonPositiveDays
	}

	in = decision.EvalInput{
		EmployeeID: req.EmployeeID,
		LeaveType:  req.LeaveType,
		StartDate:  start,
		EndDate:    end,
		TotalDays:  req.TotalDays,
		IsHalfDay:  req.IsHalfDay,
	}
	return in, nil
}

func (s *service) buildRequest(companyID, actorID string, seq int64, in decision.EvalInput, reason string, dec decision.Decision, chain []uuid.UUID, now time.Time) (*LeaveRequest, error) {
	trace, err := json.Marshal(dec.Trace)
	if err != nil {
		return nil, err
	}
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return nil, leaveerrors.ErrEmployeeNotInCompany
	}
	creatorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return nil, leaveerrors.ErrEmployeeNotInCompany
	}

	l := &LeaveRequest{
		ID:            uuid.New(),
		RequestNumber: seq,
		CompanyID:     companyUUID,
		EmployeeID:    uuid.MustParse(in.EmployeeID),
		LeaveType:     in.LeaveType,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		TotalDays:     in.TotalDays,
		IsHalfDay:     in.IsHalfDay,
		Reason:        reason,
		Status:        string(dec.Status),
		Confidence:    dec.Confidence,
		RuleTrace:     trace,
		SLADeadline:   now.Add(s.slaWindow),
		CreatedBy:     creatorUUID,
		CreatedAt:     now,
	}

	if dec.Status == decision.StatusEscalated {
		if len(chain) == 0 {
			return nil, hierarchyerrors.ErrNoApproverAvailable
		}
		approver := chain[0]
		l.CurrentApproverID = &approver
		escalation := strings.Join(violationMessages(dec.Violations), "; ")
		l.EscalationReason = &escalation
	} else {
		approvedAt := now
		l.ApprovedAt = &approvedAt
	}
	return l, nil
}

func (s *service) enqueueSubmissionEvents(ctx context.Context, qtx kafka.OutboxRepository, l *LeaveRequest, dec decision.Decision, actorID string, now time.Time) error {
	eventType := events.LeaveAutoApproved
	balanceEvent := events.BalanceConsumed
	usedDelta := l.TotalDays
	pendingDelta := decimal.Zero
	template := events.TemplateLeaveApproval
	recipient := l.EmployeeID.String()

	if l.Status == StatusEscalated {
		eventType = events.LeaveEscalated
		balanceEvent = events.BalanceReserved
		usedDelta = decimal.Zero
		pendingDelta = l.TotalDays
		template = events.TemplateLeaveEscalation
		recipient = l.CurrentApproverID.String()
	}

	decided := events.LeaveDecidedEvent{
		EventType:  eventType,
		RequestID:  l.ID.String(),
		CompanyID:  l.CompanyID.String(),
		EmployeeID: l.EmployeeID.String(),
		LeaveType:  l.LeaveType,
		Status:     l.Status,
		Violations: violationMessages(dec.Violations),
		Confidence: l.Confidence,
		ActorID:    actorID,
		OccurredAt: now,
	}
	if err := s.enqueue(ctx, qtx, l, events.LeaveDecisionTopic, eventType, decided); err != nil {
		return err
	}

	delta := events.BalanceDeltaEvent{
		EventType:    balanceEvent,
		RequestID:    l.ID.String(),
		CompanyID:    l.CompanyID.String(),
		EmployeeID:   l.EmployeeID.String(),
		LeaveType:    l.LeaveType,
		Year:         l.StartDate.Year(),
		UsedDelta:    usedDelta.String(),
		PendingDelta: pendingDelta.String(),
		OccurredAt:   now,
	}
	if err := s.enqueue(ctx, qtx, l, events.BalanceDeltaTopic, balanceEvent, delta); err != nil {
		return err
	}

	notify := events.NotificationRequestedEvent{
		EventType:   events.NotificationRequested,
		CompanyID:   l.CompanyID.String(),
		RecipientID: recipient,
		Template:    template,
		Payload: map[string]string{
			"request_id": l.ID.String(),
			"leave_type": l.LeaveType,
			"start_date": l.StartDate.Format(dateLayout),
			"end_date":   l.EndDate.Format(dateLayout),
			"status":     l.Status,
		},
		OccurredAt: now,
	}
	return s.enqueue(ctx, qtx, l, events.NotificationTopic, events.NotificationRequested, notify)
}

func (s *service) enqueueDecisionEvents(ctx context.Context, qtx kafka.OutboxRepository, l *LeaveRequest, eventType, actorID string, now time.Time,
	balanceEvent string, usedDelta, pendingDelta decimal.Decimal, template string) error {

	decided := events.LeaveDecidedEvent{
		EventType:  eventType,
		RequestID:  l.ID.String(),
		CompanyID:  l.CompanyID.String(),
		EmployeeID: l.EmployeeID.String(),
		LeaveType:  l.LeaveType,
		Status:     l.Status,
		Confidence: l.Confidence,
		ActorID:    actorID,
		OccurredAt: now,
	}
	if err := s.enqueue(ctx, qtx, l, events.LeaveDecisionTopic, eventType, decided); err != nil {
		return err
	}

	delta := events.BalanceDeltaEvent{
		EventType:    balanceEvent,
		RequestID:    l.ID.String(),
		CompanyID:    l.CompanyID.String(),
		EmployeeID:   l.EmployeeID.String(),
		LeaveType:    l.LeaveType,
		Year:         l.StartDate.Year(),
		UsedDelta:    usedDelta.String(),
		PendingDelta: pendingDelta.String(),
		OccurredAt:   now,
	}
	if err := s.enqueue(ctx, qtx, l, events.BalanceDeltaTopic, balanceEvent, delta); err != nil {
		return err
	}

	notify := events.NotificationRequestedEvent{
		EventType:   events.NotificationRequested,
		CompanyID:   l.CompanyID.String(),
		RecipientID: l.EmployeeID.String(),
		Template:    template,
		Payload: map[string]string{
			"request_id": l.ID.String(),
			"leave_type": l.LeaveType,
			"status":     l.Status,
		},
		OccurredAt: now,
	}
	return s.enqueue(ctx, qtx, l, events.NotificationTopic, events.NotificationRequested, notify)
}

func (s *service) enqueue(ctx context.Context, qtx kafka.OutboxRepository, l *LeaveRequest, topic, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return qtx.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     eventType,
		Topic:         topic,
		Payload:       body,
		Status:        kafka.OutboxStatusPending,
	})
}

func violationMessages(violations []decision.Violation) []string {
	if len(violations) == 0 {
		return nil
	}
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Message
	}
	return msgs
}

func chainStrings(chain []uuid.UUID) []string {
	out := make([]string, len(chain))
	for i, id := range chain {
		out[i] = id.String()
	}
	return out
}

func mapRepositoryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return leaveerrors.ErrLeaveRequestNotFound
	}
	return err
}
