package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusfin/expense-approval/internal/application/port"
	"github.com/campusfin/expense-approval/internal/domain/report"
	"github.com/campusfin/expense-approval/pkg/database"
)

// ReportRepository implements port.ReportRepository on SQLite. The report
// row carries a version column; Save compares-and-swaps on it so a stale
// read never overwrites a newer status.
type ReportRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB, logger *zap.Logger) port.ReportRepository {
	return &ReportRepository{db: db, logger: logger}
}

// approvalsDoc is the JSON layout of the six stage records in one column
type approvalsDoc struct {
	Faculty     *report.ApprovalRecord `json:"faculty,omitempty"`
	SchoolChair *report.ApprovalRecord `json:"school_chair,omitempty"`
	DeanSRIC    *report.ApprovalRecord `json:"dean_sric,omitempty"`
	Director    *report.ApprovalRecord `json:"director,omitempty"`
	Audit       *report.ApprovalRecord `json:"audit,omitempty"`
	Finance     *report.ApprovalRecord `json:"finance,omitempty"`
}

// Create inserts a new report and its items in one transaction
func (r *ReportRepository) Create(ctx context.Context, rep *report.ExpenseReport) error {
	approvals, err := marshalApprovals(rep)
	if err != nil {
		return err
	}

	err = r.db.WithTransaction(func(tx *sql.Tx) error {
		query := `
			INSERT INTO expense_reports (
				id, version, submitter_id, submitter_name, submitter_role,
				faculty_id, faculty_name, student_id, student_name,
				department, period_start, period_end, purpose, report_type,
				funding_source, fund_type, project_id,
				total_cents, university_card_cents, personal_cents,
				non_reimbursable_cents, net_reimbursement_cents,
				status, approvals, submission_date, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		if _, err := tx.ExecContext(ctx, query,
			rep.ID, rep.Version, rep.SubmitterID, rep.SubmitterName, string(rep.SubmitterRole),
			rep.FacultyID, rep.FacultyName, rep.StudentID, rep.StudentName,
			string(rep.Department), rep.PeriodStart, rep.PeriodEnd, rep.Purpose, string(rep.ReportType),
			rep.FundingSource, string(rep.FundType), rep.ProjectID,
			rep.TotalCents, rep.UniversityCardCents, rep.PersonalCents,
			rep.NonReimbursableCents, rep.NetReimbursementCents,
			string(rep.Status), approvals, rep.SubmissionDate, rep.CreatedAt, rep.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert report: %w", err)
		}

		return insertItems(ctx, tx, rep)
	})
	if err != nil {
		r.logger.Error("Failed to create report", zap.String("report_id", rep.ID), zap.Error(err))
		return err
	}
	return nil
}

// GetByID retrieves a report with its items
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*report.ExpenseReport, error) {
	query := selectColumns + ` FROM expense_reports WHERE id = ?`

	rep, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &report.NotFoundError{Kind: "report", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get report", zap.String("report_id", id), zap.Error(err))
		return nil, fmt.Errorf("get report: %w", err)
	}

	if err := r.loadItems(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// Save persists the whole aggregate with compare-and-swap on version
func (r *ReportRepository) Save(ctx context.Context, rep *report.ExpenseReport) error {
	approvals, err := marshalApprovals(rep)
	if err != nil {
		return err
	}

	err = r.db.WithTransaction(func(tx *sql.Tx) error {
		query := `
			UPDATE expense_reports SET
				version = version + 1,
				faculty_id = ?, faculty_name = ?,
				department = ?, period_start = ?, period_end = ?, purpose = ?, report_type = ?,
				funding_source = ?, fund_type = ?, project_id = ?,
				total_cents = ?, university_card_cents = ?, personal_cents = ?,
				non_reimbursable_cents = ?, net_reimbursement_cents = ?,
				status = ?, approvals = ?, submission_date = ?, updated_at = ?
			WHERE id = ? AND version = ?
		`
		result, err := tx.ExecContext(ctx, query,
			rep.FacultyID, rep.FacultyName,
			string(rep.Department), rep.PeriodStart, rep.PeriodEnd, rep.Purpose, string(rep.ReportType),
			rep.FundingSource, string(rep.FundType), rep.ProjectID,
			rep.TotalCents, rep.UniversityCardCents, rep.PersonalCents,
			rep.NonReimbursableCents, rep.NetReimbursementCents,
			string(rep.Status), approvals, rep.SubmissionDate, rep.UpdatedAt,
			rep.ID, rep.Version,
		)
		if err != nil {
			return fmt.Errorf("update report: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			var exists int
			if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM expense_reports WHERE id = ?", rep.ID).Scan(&exists); err != nil {
				return fmt.Errorf("existence check: %w", err)
			}
			if exists == 0 {
				return &report.NotFoundError{Kind: "report", ID: rep.ID}
			}
			return report.ErrVersionConflict
		}

		// Items are replaced wholesale; the aggregate is the consistency boundary
		if _, err := tx.ExecContext(ctx, "DELETE FROM expense_items WHERE report_id = ?", rep.ID); err != nil {
			return fmt.Errorf("clear items: %w", err)
		}
		return insertItems(ctx, tx, rep)
	})
	if err != nil {
		if err != report.ErrVersionConflict {
			r.logger.Error("Failed to save report", zap.String("report_id", rep.ID), zap.Error(err))
		}
		return err
	}

	rep.Version++
	return nil
}

// List retrieves reports ordered by creation time, newest first
func (r *ReportRepository) List(ctx context.Context, status report.Status, limit, offset int) ([]*report.ExpenseReport, error) {
	query := selectColumns + ` FROM expense_reports`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list reports", zap.Error(err))
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []*report.ExpenseReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rep := range reports {
		if err := r.loadItems(ctx, rep); err != nil {
			return nil, err
		}
	}
	return reports, nil
}

const selectColumns = `
	SELECT id, version, submitter_id, submitter_name, submitter_role,
		faculty_id, faculty_name, student_id, student_name,
		department, period_start, period_end, purpose, report_type,
		funding_source, fund_type, project_id,
		total_cents, university_card_cents, personal_cents,
		non_reimbursable_cents, net_reimbursement_cents,
		status, approvals, submission_date, created_at, updated_at`

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*report.ExpenseReport, error) {
	var rep report.ExpenseReport
	var submitterRole, department, reportType, fundType, status string
	var approvalsJSON string
	var submissionDate sql.NullTime

	err := row.Scan(
		&rep.ID, &rep.Version, &rep.SubmitterID, &rep.SubmitterName, &submitterRole,
		&rep.FacultyID, &rep.FacultyName, &rep.StudentID, &rep.StudentName,
		&department, &rep.PeriodStart, &rep.PeriodEnd, &rep.Purpose, &reportType,
		&rep.FundingSource, &fundType, &rep.ProjectID,
		&rep.TotalCents, &rep.UniversityCardCents, &rep.PersonalCents,
		&rep.NonReimbursableCents, &rep.NetReimbursementCents,
		&status, &approvalsJSON, &submissionDate, &rep.CreatedAt, &rep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rep.SubmitterRole = report.Role(submitterRole)
	rep.Department = report.Department(department)
	rep.ReportType = report.ReportType(reportType)
	rep.FundType = report.FundType(fundType)
	rep.Status = report.Status(status)
	if submissionDate.Valid {
		rep.SubmissionDate = &submissionDate.Time
	}

	var doc approvalsDoc
	if err := json.Unmarshal([]byte(approvalsJSON), &doc); err != nil {
		return nil, fmt.Errorf("decode approvals: %w", err)
	}
	rep.FacultyApproval = doc.Faculty
	rep.SchoolChairApproval = doc.SchoolChair
	rep.DeanSRICApproval = doc.DeanSRIC
	rep.DirectorApproval = doc.Director
	rep.AuditApproval = doc.Audit
	rep.FinanceApproval = doc.Finance

	return &rep, nil
}

func marshalApprovals(rep *report.ExpenseReport) (string, error) {
	doc := approvalsDoc{
		Faculty:     rep.FacultyApproval,
		SchoolChair: rep.SchoolChairApproval,
		DeanSRIC:    rep.DeanSRICApproval,
		Director:    rep.DirectorApproval,
		Audit:       rep.AuditApproval,
		Finance:     rep.FinanceApproval,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode approvals: %w", err)
	}
	return string(data), nil
}

func insertItems(ctx context.Context, tx *sql.Tx, rep *report.ExpenseReport) error {
	query := `
		INSERT INTO expense_items (
			id, report_id, position, expense_date, category, vendor,
			description, amount_cents, payment_method, receipt_ref, charge_to_grant
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range rep.Items {
		item := &rep.Items[i]
		if _, err := tx.ExecContext(ctx, query,
			item.ID, rep.ID, i, item.Date, string(item.Category), item.Vendor,
			item.Description, item.AmountCents, string(item.PaymentMethod),
			item.ReceiptRef, item.ChargeToGrant,
		); err != nil {
			return fmt.Errorf("insert item %s: %w", item.ID, err)
		}
	}
	return nil
}

func (r *ReportRepository) loadItems(ctx context.Context, rep *report.ExpenseReport) error {
	query := `
		SELECT id, expense_date, category, vendor, description,
			amount_cents, payment_method, receipt_ref, charge_to_grant
		FROM expense_items
		WHERE report_id = ?
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, rep.ID)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	var items []report.ExpenseItem
	for rows.Next() {
		var item report.ExpenseItem
		var category, paymentMethod string
		if err := rows.Scan(
			&item.ID, &item.Date, &category, &item.Vendor, &item.Description,
			&item.AmountCents, &paymentMethod, &item.ReceiptRef, &item.ChargeToGrant,
		); err != nil {
			return fmt.Errorf("scan item: %w", err)
		}
		item.Category = report.Category(category)
		item.PaymentMethod = report.PaymentMethod(paymentMethod)
		items = append(items, item)
	}
	rep.Items = items
	return rows.Err()
}

// Verify interface compliance
var _ port.ReportRepository = (*ReportRepository)(nil)
