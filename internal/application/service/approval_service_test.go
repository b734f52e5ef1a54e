package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusfin/expense-approval/internal/domain/report"
	"github.com/campusfin/expense-approval/internal/domain/workflow"
)

func newTestApprovalService(repo *mockRepo, notifier *mockNotifier) ApprovalService {
	return NewApprovalService(repo, notifier, nopLogger{})
}

// seedSubmitted stores a report already in SUBMITTED so approval tests can
// start from the top of the chain.
func seedSubmitted(t *testing.T, repo *mockRepo, submitterRole report.Role) string {
	t.Helper()
	svc := newTestReportService(repo)
	ctx := context.Background()

	in := createInput()
	in.SubmitterRole = submitterRole
	rep, err := svc.CreateReport(ctx, in)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, rep.ID, itemInput())
	require.NoError(t, err)
	_, err = svc.SubmitReport(ctx, rep.ID)
	require.NoError(t, err)
	return rep.ID
}

func waitNotify(t *testing.T, notifier *mockNotifier) notifyCall {
	t.Helper()
	select {
	case call := <-notifier.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return notifyCall{}
	}
}

func TestApplyAction_DepartmentFundChain(t *testing.T) {
	repo := newMockRepo()
	notifier := newMockNotifier()
	svc := newTestApprovalService(repo, notifier)
	ctx := context.Background()

	reportID := seedSubmitted(t, repo, report.RoleStudent)

	steps := []struct {
		actor   workflow.Actor
		payload workflow.ActionPayload
		want    report.Status
	}{
		{
			actor:   workflow.Actor{ID: "f-1", Name: "Prof. Ruiz", Role: report.RoleFaculty},
			payload: workflow.ActionPayload{FundType: report.FundDepartment},
			want:    report.StatusFacultyApproved,
		},
		{
			actor: workflow.Actor{ID: "c-1", Name: "Chair Okafor", Role: report.RoleSchoolChair,
				Department: report.DeptEngineering},
			want: report.StatusSchoolChairApproved,
		},
		{
			actor: workflow.Actor{ID: "a-1", Name: "Auditor Singh", Role: report.RoleAudit},
			want:  report.StatusAuditApproved,
		},
		{
			actor: workflow.Actor{ID: "fin-1", Name: "Finance Park", Role: report.RoleFinance},
			want:  report.StatusFinanceApproved,
		},
	}

	previous := report.StatusSubmitted
	for _, s := range steps {
		rep, err := svc.ApplyAction(ctx, reportID, s.actor, workflow.ActionApprove, s.payload)
		require.NoError(t, err, "actor %s", s.actor.Role)
		assert.Equal(t, s.want, rep.Status)

		call := waitNotify(t, notifier)
		assert.Equal(t, reportID, call.reportID)
		assert.Equal(t, previous, call.previous)
		assert.Equal(t, s.want, call.current)
		previous = s.want
	}

	stored, err := repo.GetByID(ctx, reportID)
	require.NoError(t, err)
	assert.Equal(t, report.StatusFinanceApproved, stored.Status)
	require.NotNil(t, stored.FacultyApproval)
	require.NotNil(t, stored.SchoolChairApproval)
	assert.Nil(t, stored.DeanSRICApproval)
	assert.Nil(t, stored.DirectorApproval)
	require.NotNil(t, stored.AuditApproval)
	require.NotNil(t, stored.FinanceApproval)
}

func TestApplyAction_FundBranchChains(t *testing.T) {
	type step struct {
		actor   workflow.Actor
		payload workflow.ActionPayload
		want    report.Status
	}

	chairActor := workflow.Actor{ID: "c-1", Name: "Chair Okafor", Role: report.RoleSchoolChair,
		Department: report.DeptEngineering}
	auditor := workflow.Actor{ID: "a-1", Name: "Auditor Singh", Role: report.RoleAudit}
	finance := workflow.Actor{ID: "fin-1", Name: "Finance Park", Role: report.RoleFinance}

	tests := []struct {
		name  string
		steps []step
	}{
		{
			name: "project fund passes dean sric",
			steps: []step{
				{workflow.Actor{ID: "f-1", Name: "Prof. Ruiz", Role: report.RoleFaculty},
					workflow.ActionPayload{FundType: report.FundProject, ProjectID: "PRJ-9"},
					report.StatusFacultyApproved},
				{chairActor, workflow.ActionPayload{}, report.StatusSchoolChairApproved},
				{workflow.Actor{ID: "d-1", Name: "Dean Hoffman", Role: report.RoleDeanSRIC},
					workflow.ActionPayload{}, report.StatusDeanSRICApproved},
				{auditor, workflow.ActionPayload{}, report.StatusAuditApproved},
				{finance, workflow.ActionPayload{}, report.StatusFinanceApproved},
			},
		},
		{
			name: "institute fund passes director",
			steps: []step{
				{workflow.Actor{ID: "f-1", Name: "Prof. Ruiz", Role: report.RoleFaculty},
					workflow.ActionPayload{FundType: report.FundInstitute},
					report.StatusFacultyApproved},
				{chairActor, workflow.ActionPayload{}, report.StatusSchoolChairApproved},
				{workflow.Actor{ID: "dir-1", Name: "Director Liu", Role: report.RoleDirector},
					workflow.ActionPayload{}, report.StatusDirectorApproved},
				{auditor, workflow.ActionPayload{}, report.StatusAuditApproved},
				{finance, workflow.ActionPayload{}, report.StatusFinanceApproved},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			svc := newTestApprovalService(repo, newMockNotifier())
			ctx := context.Background()
			reportID := seedSubmitted(t, repo, report.RoleStudent)

			for i, s := range tt.steps {
				rep, err := svc.ApplyAction(ctx, reportID, s.actor, workflow.ActionApprove, s.payload)
				require.NoError(t, err, "step %d (%s)", i, s.actor.Role)
				assert.Equal(t, s.want, rep.Status)
			}
		})
	}
}

func TestApplyAction_SendbackAndResubmit(t *testing.T) {
	repo := newMockRepo()
	notifier := newMockNotifier()
	approvals := newTestApprovalService(repo, notifier)
	reports := newTestReportService(repo)
	ctx := context.Background()

	reportID := seedSubmitted(t, repo, report.RoleStudent)

	facultyActor := workflow.Actor{ID: "f-1", Name: "Prof. Ruiz", Role: report.RoleFaculty}
	_, err := approvals.ApplyAction(ctx, reportID, facultyActor, workflow.ActionApprove,
		workflow.ActionPayload{FundType: report.FundDepartment})
	require.NoError(t, err)
	waitNotify(t, notifier)

	chairActor := workflow.Actor{ID: "c-1", Name: "Chair Okafor", Role: report.RoleSchoolChair,
		Department: report.DeptEngineering}
	rep, err := approvals.ApplyAction(ctx, reportID, chairActor, workflow.ActionSendback,
		workflow.ActionPayload{Remarks: "split the hotel nights"})
	require.NoError(t, err)
	assert.Equal(t, report.StatusDraft, rep.Status)

	call := waitNotify(t, notifier)
	assert.Equal(t, "split the hotel nights", call.remarks)
	assert.Equal(t, report.StatusDraft, call.current)

	// The draft is editable again and re-enters at the Faculty stage.
	_, err = reports.AddItem(ctx, reportID, itemInput())
	require.NoError(t, err)
	resubmitted, err := reports.SubmitReport(ctx, reportID)
	require.NoError(t, err)
	assert.Equal(t, report.StatusSubmitted, resubmitted.Status)

	rep, err = approvals.ApplyAction(ctx, reportID, facultyActor, workflow.ActionApprove,
		workflow.ActionPayload{FundType: report.FundDepartment})
	require.NoError(t, err)
	assert.Equal(t, report.StatusFacultyApproved, rep.Status)
}

func TestApplyAction_ValidationFailureDoesNotSave(t *testing.T) {
	repo := newMockRepo()
	svc := newTestApprovalService(repo, newMockNotifier())
	ctx := context.Background()

	reportID := seedSubmitted(t, repo, report.RoleStudent)
	saveCallsBefore := repo.saveCalls

	facultyActor := workflow.Actor{ID: "f-1", Name: "Prof. Ruiz", Role: report.RoleFaculty}
	_, err := svc.ApplyAction(ctx, reportID, facultyActor, workflow.ActionReject, workflow.ActionPayload{})

	var vErr *report.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, saveCallsBefore, repo.saveCalls)

	stored, err := repo.GetByID(ctx, reportID)
	require.NoError(t, err)
	assert.Equal(t, report.StatusSubmitted, stored.Status)
}

func TestApplyAction_ReportNotFound(t *testing.T) {
	svc := newTestApprovalService(newMockRepo(), newMockNotifier())

	facultyActor := workflow.Actor{ID: "f-1", Name: "Prof. Ruiz", Role: report.RoleFaculty}
	_, err := svc.ApplyAction(context.Background(), "missing", facultyActor,
		workflow.ActionApprove, workflow.ActionPayload{FundType: report.FundDepartment})

	var nfErr *report.NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestApplyAction_RetriesOnVersionConflict(t *testing.T) {
	repo := newMockRepo()
	notifier := newMockNotifier()
	svc := newTestApprovalService(repo, notifier)
	ctx := context.Background()

	reportID := seedSubmitted(t, repo, report.RoleStudent)

	conflicts := 0
	repo.saveFunc = func(ctx context.Context, r *report.ExpenseReport) error {
		if conflicts < 2 {
			conflicts++
			repo.bumpVersion(r.ID)
			return report.ErrVersionConflict
		}
		return repo.defaultSave(ctx, r)
	}

	facultyActor := workflow.Actor{ID: "f-1", Name: "Prof. Ruiz", Role: report.RoleFaculty}
	rep, err := svc.ApplyAction(ctx, reportID, facultyActor, workflow.ActionApprove,
		workflow.ActionPayload{FundType: report.FundDepartment})
	require.NoError(t, err)
	assert.Equal(t, report.StatusFacultyApproved, rep.Status)
	assert.Equal(t, 2, conflicts)
	waitNotify(t, notifier)
}

func TestApplyAction_GivesUpAfterRetriesExhausted(t *testing.T) {
	repo := newMockRepo()
	svc := newTestApprovalService(repo, newMockNotifier())
	ctx := context.Background()

	reportID := seedSubmitted(t, repo, report.RoleStudent)
	repo.saveFunc = func(ctx context.Context, r *report.ExpenseReport) error {
		return report.ErrVersionConflict
	}

	facultyActor := workflow.Actor{ID: "f-1", Name: "Prof. Ruiz", Role: report.RoleFaculty}
	_, err := svc.ApplyAction(ctx, reportID, facultyActor, workflow.ActionApprove,
		workflow.ActionPayload{FundType: report.FundDepartment})
	require.ErrorIs(t, err, report.ErrVersionConflict)
}
