package port

import (
	"context"

	"github.com/campusfin/expense-approval/internal/domain/report"
)

// ReportRepository defines persistence for the ExpenseReport aggregate.
// The report document is the unit of atomicity: a Save either lands whole
// or not at all, and never overwrites a newer version.
type ReportRepository interface {
	// Create persists a new report together with its items.
	Create(ctx context.Context, rep *report.ExpenseReport) error

	// GetByID retrieves a report with its items, or NotFoundError.
	GetByID(ctx context.Context, id string) (*report.ExpenseReport, error)

	// Save persists the whole aggregate with compare-and-swap on the
	// version field. Returns report.ErrVersionConflict when the stored
	// version no longer matches; the caller must re-read and retry.
	Save(ctx context.Context, rep *report.ExpenseReport) error

	// List retrieves reports ordered by creation time, newest first.
	// An empty status matches all statuses.
	List(ctx context.Context, status report.Status, limit, offset int) ([]*report.ExpenseReport, error)
}
