// Package notification composes and dispatches status-change messages.
// Delivery transports (campus mail gateway, IM) live behind the outbound
// sender; the shipped sender logs deliveries so the service runs without
// external infrastructure.
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusfin/expense-approval/internal/application/port"
	"github.com/campusfin/expense-approval/internal/domain/report"
)

// Sender delivers a composed message to a recipient address
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Config holds notification settings
type Config struct {
	FinanceEmail string
	SenderName   string
}

// StatusNotifier implements port.Notifier. The submitter is notified on
// every transition; finance additionally gets a copy once a report clears
// audit.
type StatusNotifier struct {
	cfg    Config
	sender Sender
	logger *zap.Logger
}

// NewStatusNotifier creates a new status notifier
func NewStatusNotifier(cfg Config, sender Sender, logger *zap.Logger) port.Notifier {
	return &StatusNotifier{cfg: cfg, sender: sender, logger: logger}
}

// NotifyStatusChanged composes and sends the status-change message
func (n *StatusNotifier) NotifyStatusChanged(ctx context.Context, rep *report.ExpenseReport, previous report.Status, remarks string) error {
	subject := fmt.Sprintf("Expense report %s: %s", shortID(rep.ID), rep.Status)
	body := n.buildBody(rep, previous, remarks)

	recipient := rep.SubmitterID
	if err := n.sender.Send(ctx, recipient, subject, body); err != nil {
		return fmt.Errorf("notify submitter: %w", err)
	}

	if rep.Status == report.StatusAuditApproved && n.cfg.FinanceEmail != "" {
		if err := n.sender.Send(ctx, n.cfg.FinanceEmail, subject, body); err != nil {
			return fmt.Errorf("notify finance: %w", err)
		}
	}

	n.logger.Info("Status notification dispatched",
		zap.String("report_id", rep.ID),
		zap.String("new_status", rep.Status.String()))
	return nil
}

func (n *StatusNotifier) buildBody(rep *report.ExpenseReport, previous report.Status, remarks string) string {
	body := fmt.Sprintf(
		"Your expense report %s moved from %s to %s.\n\nPurpose: %s\nTotal: %.2f\nNet reimbursement: %.2f\n",
		shortID(rep.ID), previous, rep.Status, rep.Purpose,
		float64(rep.TotalCents)/100, float64(rep.NetReimbursementCents)/100,
	)
	if remarks != "" {
		body += fmt.Sprintf("\nReviewer remarks: %s\n", remarks)
	}
	if n.cfg.SenderName != "" {
		body += fmt.Sprintf("\n-- %s\n", n.cfg.SenderName)
	}
	return body
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// LogSender is a Sender that records deliveries in the log stream
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-backed sender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message instead of delivering it
func (s *LogSender) Send(ctx context.Context, recipient, subject, body string) error {
	s.logger.Info("Notification sent",
		zap.String("recipient", recipient),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)))
	return nil
}

// Verify interface compliance
var (
	_ port.Notifier = (*StatusNotifier)(nil)
	_ Sender        = (*LogSender)(nil)
)
