package port

import (
	"context"

	"github.com/campusfin/expense-approval/internal/domain/report"
)

// Notifier delivers status-change notifications. Delivery is best-effort
// and happens after the transition is durably committed; a failure never
// rolls back the transition.
type Notifier interface {
	NotifyStatusChanged(ctx context.Context, rep *report.ExpenseReport, previous report.Status, remarks string) error
}

// ReceiptStore resolves a receipt reference string to a retrievable URL.
// The core stores only the reference, never bytes.
type ReceiptStore interface {
	ResolveURL(ctx context.Context, ref string) (string, error)
}
