// Package export renders the finance reimbursement form for approved
// reports as an Excel workbook.
package export

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/campusfin/expense-approval/internal/domain/report"
)

// ErrNotApproved is returned when a form is requested for a report that
// finance has not approved yet
var ErrNotApproved = errors.New("report is not finance approved")

const sheetName = "Reimbursement Form"

// itemGridStart is the first row of the item table
const itemGridStart = 10

// FormGenerator renders reimbursement forms
type FormGenerator struct {
	universityName string
	logger         *zap.Logger
}

// NewFormGenerator creates a new form generator
func NewFormGenerator(universityName string, logger *zap.Logger) *FormGenerator {
	return &FormGenerator{universityName: universityName, logger: logger}
}

// Generate renders the form for a finance-approved report and returns the
// workbook bytes
func (g *FormGenerator) Generate(rep *report.ExpenseReport) ([]byte, error) {
	if rep.Status != report.StatusFinanceApproved && rep.Status != report.StatusCompleted {
		return nil, ErrNotApproved
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	g.fillHeader(f, rep)
	g.fillItems(f, rep)
	g.fillTotals(f, rep)

	_ = f.SetColWidth(sheetName, "A", "B", 22)
	_ = f.SetColWidth(sheetName, "C", "E", 16)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	g.logger.Info("Reimbursement form generated",
		zap.String("report_id", rep.ID),
		zap.Int("items", len(rep.Items)))
	return buf.Bytes(), nil
}

func (g *FormGenerator) fillHeader(f *excelize.File, rep *report.ExpenseReport) {
	g.setCell(f, "A1", g.universityName)
	g.setCell(f, "A2", "Expense Reimbursement Form")
	g.setCell(f, "A4", "Report ID")
	g.setCell(f, "B4", rep.ID)
	g.setCell(f, "A5", "Submitter")
	g.setCell(f, "B5", rep.SubmitterName)
	g.setCell(f, "A6", "Department")
	g.setCell(f, "B6", string(rep.Department))
	g.setCell(f, "A7", "Fund type")
	g.setCell(f, "B7", string(rep.FundType))
	if rep.ProjectID != "" {
		g.setCell(f, "C7", "Project")
		g.setCell(f, "D7", rep.ProjectID)
	}
	g.setCell(f, "A8", "Period")
	g.setCell(f, "B8", fmt.Sprintf("%s to %s",
		rep.PeriodStart.Format("2006-01-02"), rep.PeriodEnd.Format("2006-01-02")))
	if rep.SubmissionDate != nil {
		g.setCell(f, "C8", "Submitted")
		g.setCell(f, "D8", rep.SubmissionDate.Format("2006-01-02"))
	}

	headers := []string{"Date", "Category", "Vendor", "Amount", "Payment"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, itemGridStart-1)
		g.setCell(f, cell, h)
	}
}

func (g *FormGenerator) fillItems(f *excelize.File, rep *report.ExpenseReport) {
	for i := range rep.Items {
		item := &rep.Items[i]
		row := itemGridStart + i
		g.setCell(f, fmt.Sprintf("A%d", row), item.Date.Format("2006-01-02"))
		g.setCell(f, fmt.Sprintf("B%d", row), string(item.Category))
		g.setCell(f, fmt.Sprintf("C%d", row), item.Vendor)
		g.setCell(f, fmt.Sprintf("D%d", row), fmt.Sprintf("%.2f", float64(item.AmountCents)/100))
		g.setCell(f, fmt.Sprintf("E%d", row), string(item.PaymentMethod))
	}
}

func (g *FormGenerator) fillTotals(f *excelize.File, rep *report.ExpenseReport) {
	row := itemGridStart + len(rep.Items) + 1
	lines := []struct {
		label string
		cents int64
	}{
		{"Total", rep.TotalCents},
		{"University card", rep.UniversityCardCents},
		{"Personal funds", rep.PersonalCents},
		{"Non-reimbursable", rep.NonReimbursableCents},
		{"Net reimbursement", rep.NetReimbursementCents},
	}
	for i, line := range lines {
		g.setCell(f, fmt.Sprintf("A%d", row+i), line.label)
		g.setCell(f, fmt.Sprintf("D%d", row+i), fmt.Sprintf("%.2f", float64(line.cents)/100))
	}

	sigRow := row + len(lines) + 2
	if rec := rep.AuditApproval; rec != nil {
		g.setCell(f, fmt.Sprintf("A%d", sigRow), "Audit: "+rec.ApprovedBy)
	}
	if rec := rep.FinanceApproval; rec != nil {
		g.setCell(f, fmt.Sprintf("C%d", sigRow), "Finance: "+rec.ApprovedBy)
	}
}

func (g *FormGenerator) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		g.logger.Warn("Failed to set cell value", zap.String("cell", cell), zap.Error(err))
	}
}
