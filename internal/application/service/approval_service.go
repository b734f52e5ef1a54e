package service

import (
	"context"
	"time"

	"github.com/campusfin/expense-approval/internal/application/port"
	"github.com/campusfin/expense-approval/internal/domain/report"
	"github.com/campusfin/expense-approval/internal/domain/workflow"
)

// ApprovalService runs approval decisions through the workflow state
// machine under optimistic concurrency
type ApprovalService interface {
	// ApplyAction loads the report, validates the actor's eligibility,
	// applies the transition and persists it atomically. On a version
	// conflict it re-reads and re-validates from scratch, because the
	// eligible role may have changed under us.
	ApplyAction(ctx context.Context, reportID string, actor workflow.Actor, action workflow.Action, payload workflow.ActionPayload) (*report.ExpenseReport, error)
}

type approvalServiceImpl struct {
	repo     port.ReportRepository
	notifier port.Notifier
	logger   Logger
	now      func() time.Time
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(repo port.ReportRepository, notifier port.Notifier, logger Logger) ApprovalService {
	return &approvalServiceImpl{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ApplyAction applies one approval decision to a report
func (s *approvalServiceImpl) ApplyAction(ctx context.Context, reportID string, actor workflow.Actor, action workflow.Action, payload workflow.ActionPayload) (*report.ExpenseReport, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		rep, err := s.repo.GetByID(ctx, reportID)
		if err != nil {
			return nil, err
		}
		previous := rep.Status

		if err := workflow.ApplyAction(rep, actor, action, payload, s.now()); err != nil {
			return nil, err
		}

		if err := s.repo.Save(ctx, rep); err != nil {
			if err == report.ErrVersionConflict {
				lastErr = err
				s.logger.Info("Approval raced with a concurrent change, retrying",
					"report_id", reportID, "action", action.String(), "attempt", attempt+1)
				continue
			}
			s.logger.Error("Failed to persist transition", "error", err, "report_id", reportID)
			return nil, err
		}

		s.logger.Info("Report transitioned",
			"report_id", rep.ID,
			"previous_status", previous.String(),
			"new_status", rep.Status.String(),
			"action", action.String(),
			"actor_id", actor.ID)

		s.notifyAsync(rep, previous, payload.Remarks)
		return rep, nil
	}
	return nil, lastErr
}

// notifyAsync fires the notification after the transition is durable.
// Delivery failure is logged and swallowed.
func (s *approvalServiceImpl) notifyAsync(rep *report.ExpenseReport, previous report.Status, remarks string) {
	if s.notifier == nil {
		return
	}
	snapshot := rep.Clone()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.NotifyStatusChanged(ctx, snapshot, previous, remarks); err != nil {
			s.logger.Error("Notification delivery failed", "error", err, "report_id", snapshot.ID)
		}
	}()
}
