package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/campusfin/expense-approval/internal/application/port"
	"github.com/campusfin/expense-approval/internal/domain/report"
	"github.com/campusfin/expense-approval/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// maxSaveRetries bounds optimistic-concurrency retries on a single call
const maxSaveRetries = 3

// CreateReportInput carries the fields a submitter provides when opening
// a draft report
type CreateReportInput struct {
	SubmitterID   string
	SubmitterName string
	SubmitterRole report.Role
	Department    report.Department
	PeriodStart   time.Time
	PeriodEnd     time.Time
	Purpose       string
	ReportType    report.ReportType
	FundingSource string
}

// ItemInput carries the fields of a new expense item
type ItemInput struct {
	Date          time.Time
	Category      report.Category
	Vendor        string
	Description   string
	AmountCents   int64
	PaymentMethod report.PaymentMethod
	ReceiptRef    string
	ChargeToGrant bool
}

// ReportService manages report drafts and the item ledger
type ReportService interface {
	CreateReport(ctx context.Context, in CreateReportInput) (*report.ExpenseReport, error)
	GetReport(ctx context.Context, id string) (*report.ExpenseReport, error)
	ListReports(ctx context.Context, status report.Status, limit, offset int) ([]*report.ExpenseReport, error)
	AddItem(ctx context.Context, reportID string, in ItemInput) (*report.ExpenseReport, error)
	UpdateItem(ctx context.Context, reportID, itemID string, patch report.ItemPatch) (*report.ExpenseReport, error)
	RemoveItem(ctx context.Context, reportID, itemID string) (*report.ExpenseReport, error)
	SubmitReport(ctx context.Context, reportID string) (*report.ExpenseReport, error)
}

type reportServiceImpl struct {
	repo   port.ReportRepository
	logger Logger
	now    func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(repo port.ReportRepository, logger Logger) ReportService {
	return &reportServiceImpl{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// CreateReport opens a new draft report for the submitter
func (s *reportServiceImpl) CreateReport(ctx context.Context, in CreateReportInput) (*report.ExpenseReport, error) {
	if err := validateCreateInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	rep := &report.ExpenseReport{
		ID:            uuid.NewString(),
		Version:       1,
		SubmitterID:   in.SubmitterID,
		SubmitterName: in.SubmitterName,
		SubmitterRole: in.SubmitterRole,
		Department:    in.Department,
		PeriodStart:   in.PeriodStart,
		PeriodEnd:     in.PeriodEnd,
		Purpose:       in.Purpose,
		ReportType:    in.ReportType,
		FundingSource: in.FundingSource,
		Status:        report.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if in.SubmitterRole == report.RoleStudent {
		rep.StudentID = in.SubmitterID
		rep.StudentName = in.SubmitterName
	}

	if err := s.repo.Create(ctx, rep); err != nil {
		s.logger.Error("Failed to create report", "error", err, "submitter_id", in.SubmitterID)
		return nil, err
	}

	s.logger.Info("Report created", "report_id", rep.ID, "submitter_id", in.SubmitterID)
	return rep, nil
}

// GetReport retrieves a report by id
func (s *reportServiceImpl) GetReport(ctx context.Context, id string) (*report.ExpenseReport, error) {
	return s.repo.GetByID(ctx, id)
}

// ListReports retrieves a paginated list of reports
func (s *reportServiceImpl) ListReports(ctx context.Context, status report.Status, limit, offset int) ([]*report.ExpenseReport, error) {
	if status != "" && !status.IsValid() {
		return nil, &report.ValidationError{Field: "status", Reason: "unknown status filter"}
	}
	return s.repo.List(ctx, status, limit, offset)
}

// AddItem appends an expense item to a draft report
func (s *reportServiceImpl) AddItem(ctx context.Context, reportID string, in ItemInput) (*report.ExpenseReport, error) {
	item := report.ExpenseItem{
		ID:            uuid.NewString(),
		Date:          in.Date,
		Category:      in.Category,
		Vendor:        in.Vendor,
		Description:   in.Description,
		AmountCents:   in.AmountCents,
		PaymentMethod: in.PaymentMethod,
		ReceiptRef:    in.ReceiptRef,
		ChargeToGrant: in.ChargeToGrant,
	}

	return s.mutate(ctx, reportID, "add_item", func(rep *report.ExpenseReport) error {
		return rep.AddItem(item)
	})
}

// UpdateItem applies a partial update to an expense item
func (s *reportServiceImpl) UpdateItem(ctx context.Context, reportID, itemID string, patch report.ItemPatch) (*report.ExpenseReport, error) {
	return s.mutate(ctx, reportID, "update_item", func(rep *report.ExpenseReport) error {
		return rep.UpdateItem(itemID, patch)
	})
}

// RemoveItem deletes an expense item from a draft report
func (s *reportServiceImpl) RemoveItem(ctx context.Context, reportID, itemID string) (*report.ExpenseReport, error) {
	return s.mutate(ctx, reportID, "remove_item", func(rep *report.ExpenseReport) error {
		return rep.RemoveItem(itemID)
	})
}

// SubmitReport moves a draft into the approval chain
func (s *reportServiceImpl) SubmitReport(ctx context.Context, reportID string) (*report.ExpenseReport, error) {
	return s.mutate(ctx, reportID, "submit", func(rep *report.ExpenseReport) error {
		return workflow.Submit(rep, s.now())
	})
}

// mutate runs a report mutation under optimistic concurrency: load, apply,
// save; on a version conflict it re-reads and re-applies from scratch so
// item edits are always based on the latest ledger.
func (s *reportServiceImpl) mutate(ctx context.Context, reportID, op string, fn func(*report.ExpenseReport) error) (*report.ExpenseReport, error) {
	var lastErr error
	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		rep, err := s.repo.GetByID(ctx, reportID)
		if err != nil {
			return nil, err
		}

		if err := fn(rep); err != nil {
			return nil, err
		}
		rep.UpdatedAt = s.now()

		if err := s.repo.Save(ctx, rep); err != nil {
			if err == report.ErrVersionConflict {
				lastErr = err
				s.logger.Info("Save conflict, retrying", "report_id", reportID, "op", op, "attempt", attempt+1)
				continue
			}
			s.logger.Error("Failed to save report", "error", err, "report_id", reportID, "op", op)
			return nil, err
		}

		return rep, nil
	}
	return nil, lastErr
}

func validateCreateInput(in CreateReportInput) error {
	if in.SubmitterID == "" {
		return &report.ValidationError{Field: "submitter_id", Reason: "submitter id is required"}
	}
	if in.SubmitterName == "" {
		return &report.ValidationError{Field: "submitter_name", Reason: "submitter name is required"}
	}
	if in.SubmitterRole != report.RoleStudent && in.SubmitterRole != report.RoleFaculty {
		return &report.ValidationError{Field: "submitter_role", Reason: "reports are created by students or faculty"}
	}
	if !in.Department.IsValid() {
		return &report.ValidationError{Field: "department", Reason: "unknown school"}
	}
	if !in.ReportType.IsValid() {
		return &report.ValidationError{Field: "report_type", Reason: "unknown report type"}
	}
	if in.PeriodStart.IsZero() || in.PeriodEnd.IsZero() {
		return &report.ValidationError{Field: "period", Reason: "reporting period is required"}
	}
	if in.PeriodEnd.Before(in.PeriodStart) {
		return &report.ValidationError{Field: "period", Reason: "period end precedes period start"}
	}
	if in.Purpose == "" {
		return &report.ValidationError{Field: "purpose", Reason: "purpose is required"}
	}
	return nil
}
