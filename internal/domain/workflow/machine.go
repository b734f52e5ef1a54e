// Package workflow holds the approval state machine for expense reports.
// All status mutations in the system go through this package; nothing else
// writes ExpenseReport.Status.
package workflow

import (
	"time"

	"github.com/campusfin/expense-approval/internal/domain/report"
)

// Actor identifies who is acting on a report. Role and identity come from
// the authentication collaborator and are trusted as-is.
type Actor struct {
	ID         string
	Name       string
	Role       report.Role
	Department report.Department
}

// ActionPayload carries the action-specific inputs. FundType and ProjectID
// are only consulted at the Faculty stage; Remarks are required on reject
// and sendback.
type ActionPayload struct {
	Remarks   string
	FundType  report.FundType
	ProjectID string
}

// Submit moves a DRAFT report to SUBMITTED. Submission requires at least
// one item and a receipt reference on every item. Resubmission after a
// sendback re-enters here and passes through Faculty again.
func Submit(rep *report.ExpenseReport, now time.Time) error {
	if rep.Status != report.StatusDraft {
		return &report.ForbiddenTransitionError{
			Status:   rep.Status,
			FundType: rep.FundType,
			Role:     rep.SubmitterRole,
			Action:   "SUBMIT",
		}
	}
	if len(rep.Items) == 0 {
		return &report.ValidationError{Field: "items", Reason: "a report needs at least one expense item"}
	}
	for i := range rep.Items {
		if rep.Items[i].ReceiptRef == "" {
			return &report.ValidationError{Field: "items.receipt_ref", Reason: "every item needs a receipt reference before submission"}
		}
	}

	rep.RecalculateTotals()
	rep.SubmissionDate = &now
	rep.Status = report.StatusSubmitted
	return nil
}

// ApplyAction runs one approval decision through the state machine. All
// validation happens before the first write, so a failed call leaves the
// report exactly as it was.
func ApplyAction(rep *report.ExpenseReport, actor Actor, action Action, payload ActionPayload, now time.Time) error {
	if !action.IsValid() {
		return &report.ValidationError{Field: "action", Reason: "unknown action"}
	}

	route, err := Authorize(rep.Status, rep.FundType, actor.Role, action)
	if err != nil {
		return err
	}

	if route.RequiresDepartmentMatch && actor.Department != rep.Department {
		return &report.ForbiddenTransitionError{
			Status:   rep.Status,
			FundType: rep.FundType,
			Role:     actor.Role,
			Action:   action.String(),
		}
	}

	switch action {
	case ActionApprove:
		if route.RequiresFundType {
			if !payload.FundType.IsValid() {
				return &report.ValidationError{Field: "fund_type", Reason: "fund type must be selected at faculty approval"}
			}
			if payload.FundType == report.FundProject && payload.ProjectID == "" {
				return &report.ValidationError{Field: "project_id", Reason: "project fund requires a project id"}
			}
		}
	case ActionReject, ActionSendback:
		if payload.Remarks == "" {
			return &report.ValidationError{Field: "remarks", Reason: "remarks are required for " + action.String()}
		}
	}

	// Validation is complete; everything below mutates.
	record := &report.ApprovalRecord{
		Date:         now,
		Remarks:      payload.Remarks,
		ApprovedBy:   actor.Name,
		ApprovedByID: actor.ID,
	}

	switch action {
	case ActionApprove:
		if route.RequiresFundType {
			rep.FundType = payload.FundType
			if payload.FundType == report.FundProject {
				rep.ProjectID = payload.ProjectID
			} else {
				rep.ProjectID = ""
			}
			assignFacultyFirstTouch(rep, actor)
		}
		record.Approved = true
		rep.SetApproval(route.Stage, record)
		rep.Status = route.ApproveTo

	case ActionReject:
		record.Approved = false
		rep.SetApproval(route.Stage, record)
		rep.Status = RejectTo

	case ActionSendback:
		record.Approved = false
		record.Action = string(ActionSendback)
		rep.SetApproval(route.Stage, record)
		clearStaleRemarks(rep, route.Stage)
		rep.Status = SendbackTo
	}

	rep.UpdatedAt = now
	return nil
}

// assignFacultyFirstTouch binds a student-submitted report to the first
// Faculty member who approves it. Later Faculty actions never overwrite
// the assignment.
func assignFacultyFirstTouch(rep *report.ExpenseReport, actor Actor) {
	if rep.SubmitterRole != report.RoleStudent {
		return
	}
	if rep.FacultyID != "" {
		return
	}
	rep.FacultyID = actor.ID
	rep.FacultyName = actor.Name
}

// clearStaleRemarks blanks the remarks on every other stage's record so
// old feedback does not confuse the resubmitter. The sendback record
// itself keeps its remarks as the history of why it was sent back.
func clearStaleRemarks(rep *report.ExpenseReport, except report.Stage) {
	for _, stage := range report.Stages {
		if stage == except {
			continue
		}
		if rec := rep.Approval(stage); rec != nil {
			rec.Remarks = ""
		}
	}
}
