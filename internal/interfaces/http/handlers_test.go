package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusfin/expense-approval/internal/application/service"
	"github.com/campusfin/expense-approval/internal/domain/report"
	"github.com/campusfin/expense-approval/internal/domain/workflow"
	"github.com/campusfin/expense-approval/internal/export"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockReportService struct {
	createFunc     func(ctx context.Context, in service.CreateReportInput) (*report.ExpenseReport, error)
	getFunc        func(ctx context.Context, id string) (*report.ExpenseReport, error)
	listFunc       func(ctx context.Context, status report.Status, limit, offset int) ([]*report.ExpenseReport, error)
	addItemFunc    func(ctx context.Context, reportID string, in service.ItemInput) (*report.ExpenseReport, error)
	updateItemFunc func(ctx context.Context, reportID, itemID string, patch report.ItemPatch) (*report.ExpenseReport, error)
	removeItemFunc func(ctx context.Context, reportID, itemID string) (*report.ExpenseReport, error)
	submitFunc     func(ctx context.Context, reportID string) (*report.ExpenseReport, error)
}

func (m *mockReportService) CreateReport(ctx context.Context, in service.CreateReportInput) (*report.ExpenseReport, error) {
	return m.createFunc(ctx, in)
}

func (m *mockReportService) GetReport(ctx context.Context, id string) (*report.ExpenseReport, error) {
	return m.getFunc(ctx, id)
}

func (m *mockReportService) ListReports(ctx context.Context, status report.Status, limit, offset int) ([]*report.ExpenseReport, error) {
	return m.listFunc(ctx, status, limit, offset)
}

func (m *mockReportService) AddItem(ctx context.Context, reportID string, in service.ItemInput) (*report.ExpenseReport, error) {
	return m.addItemFunc(ctx, reportID, in)
}

func (m *mockReportService) UpdateItem(ctx context.Context, reportID, itemID string, patch report.ItemPatch) (*report.ExpenseReport, error) {
	return m.updateItemFunc(ctx, reportID, itemID, patch)
}

func (m *mockReportService) RemoveItem(ctx context.Context, reportID, itemID string) (*report.ExpenseReport, error) {
	return m.removeItemFunc(ctx, reportID, itemID)
}

func (m *mockReportService) SubmitReport(ctx context.Context, reportID string) (*report.ExpenseReport, error) {
	return m.submitFunc(ctx, reportID)
}

type mockApprovalService struct {
	applyFunc func(ctx context.Context, reportID string, actor workflow.Actor, action workflow.Action, payload workflow.ActionPayload) (*report.ExpenseReport, error)
}

func (m *mockApprovalService) ApplyAction(ctx context.Context, reportID string, actor workflow.Actor, action workflow.Action, payload workflow.ActionPayload) (*report.ExpenseReport, error) {
	return m.applyFunc(ctx, reportID, actor, action, payload)
}

type mockReceiptStore struct {
	resolveFunc func(ctx context.Context, ref string) (string, error)
}

func (m *mockReceiptStore) ResolveURL(ctx context.Context, ref string) (string, error) {
	return m.resolveFunc(ctx, ref)
}

func newTestRouter(reports *mockReportService, approvals *mockApprovalService, receipts *mockReceiptStore) *gin.Engine {
	forms := export.NewFormGenerator("University", zap.NewNop())
	handlers := NewHandlers(reports, approvals, receipts, forms, nopLogger{})
	return NewServer(ServerConfig{}, handlers, nopLogger{}).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&mockReportService{}, &mockApprovalService{}, &mockReceiptStore{})

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestCreateReport(t *testing.T) {
	reports := &mockReportService{
		createFunc: func(ctx context.Context, in service.CreateReportInput) (*report.ExpenseReport, error) {
			assert.Equal(t, "s-100", in.SubmitterID)
			assert.Equal(t, report.RoleStudent, in.SubmitterRole)
			return &report.ExpenseReport{ID: "rep-1", Status: report.StatusDraft}, nil
		},
	}
	router := newTestRouter(reports, &mockApprovalService{}, &mockReceiptStore{})

	w := doJSON(t, router, http.MethodPost, "/api/reports", CreateReportRequest{
		SubmitterID:   "s-100",
		SubmitterName: "Alex Chen",
		SubmitterRole: "STUDENT",
		Department:    "SCHOOL_OF_ENGINEERING",
		PeriodStart:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Purpose:       "Conference travel",
		ReportType:    "RESEARCH",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestCreateReport_MissingFields(t *testing.T) {
	router := newTestRouter(&mockReportService{}, &mockApprovalService{}, &mockReceiptStore{})

	w := doJSON(t, router, http.MethodPost, "/api/reports", map[string]string{"submitter_id": "s-100"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decodeResponse(t, w).Success)
}

func TestGetReport_NotFound(t *testing.T) {
	reports := &mockReportService{
		getFunc: func(ctx context.Context, id string) (*report.ExpenseReport, error) {
			return nil, &report.NotFoundError{Kind: "report", ID: id}
		},
	}
	router := newTestRouter(reports, &mockApprovalService{}, &mockReceiptStore{})

	w := doJSON(t, router, http.MethodGet, "/api/reports/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplyAction_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "validation error",
			err:      &report.ValidationError{Field: "remarks", Reason: "required"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "forbidden transition",
			err:      &report.ForbiddenTransitionError{Status: report.StatusRejected, Role: report.RoleFaculty, Action: "APPROVE"},
			wantCode: http.StatusConflict,
		},
		{
			name:     "not found",
			err:      &report.NotFoundError{Kind: "report", ID: "rep-1"},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "version conflict",
			err:      report.ErrVersionConflict,
			wantCode: http.StatusConflict,
		},
		{
			name:     "unhandled",
			err:      errors.New("disk on fire"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approvals := &mockApprovalService{
				applyFunc: func(ctx context.Context, reportID string, actor workflow.Actor, action workflow.Action, payload workflow.ActionPayload) (*report.ExpenseReport, error) {
					return nil, tt.err
				},
			}
			router := newTestRouter(&mockReportService{}, approvals, &mockReceiptStore{})

			w := doJSON(t, router, http.MethodPost, "/api/reports/rep-1/actions", ActionRequest{
				Action:  "APPROVE",
				Actor:   ActorRequest{ID: "f-1", Name: "Prof. Ruiz", Role: "FACULTY"},
				Remarks: "",
			})
			assert.Equal(t, tt.wantCode, w.Code)
			assert.False(t, decodeResponse(t, w).Success)
		})
	}
}

func TestApplyAction(t *testing.T) {
	approvals := &mockApprovalService{
		applyFunc: func(ctx context.Context, reportID string, actor workflow.Actor, action workflow.Action, payload workflow.ActionPayload) (*report.ExpenseReport, error) {
			assert.Equal(t, "rep-1", reportID)
			assert.Equal(t, workflow.ActionApprove, action)
			assert.Equal(t, report.RoleFaculty, actor.Role)
			assert.Equal(t, report.FundProject, payload.FundType)
			assert.Equal(t, "PRJ-042", payload.ProjectID)
			return &report.ExpenseReport{ID: reportID, Status: report.StatusFacultyApproved}, nil
		},
	}
	router := newTestRouter(&mockReportService{}, approvals, &mockReceiptStore{})

	w := doJSON(t, router, http.MethodPost, "/api/reports/rep-1/actions", ActionRequest{
		Action:    "APPROVE",
		Actor:     ActorRequest{ID: "f-1", Name: "Prof. Ruiz", Role: "FACULTY"},
		FundType:  "PROJECT_FUND",
		ProjectID: "PRJ-042",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestSubmitReport(t *testing.T) {
	reports := &mockReportService{
		submitFunc: func(ctx context.Context, reportID string) (*report.ExpenseReport, error) {
			return &report.ExpenseReport{ID: reportID, Status: report.StatusSubmitted}, nil
		},
	}
	router := newTestRouter(reports, &mockApprovalService{}, &mockReceiptStore{})

	w := doJSON(t, router, http.MethodPost, "/api/reports/rep-1/submit", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestResolveReceipt(t *testing.T) {
	rep := &report.ExpenseReport{
		ID:    "rep-1",
		Items: []report.ExpenseItem{{ID: "item-1", ReceiptRef: "r-001.pdf"}},
	}
	reports := &mockReportService{
		getFunc: func(ctx context.Context, id string) (*report.ExpenseReport, error) {
			return rep, nil
		},
	}
	receipts := &mockReceiptStore{
		resolveFunc: func(ctx context.Context, ref string) (string, error) {
			return "http://objects.example.edu/receipts/" + ref, nil
		},
	}
	router := newTestRouter(reports, &mockApprovalService{}, receipts)

	w := doJSON(t, router, http.MethodGet, "/api/reports/rep-1/receipts/r-001.pdf", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// A reference not attached to the report must not resolve.
	w = doJSON(t, router, http.MethodGet, "/api/reports/rep-1/receipts/r-999.pdf", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadForm(t *testing.T) {
	reports := &mockReportService{
		getFunc: func(ctx context.Context, id string) (*report.ExpenseReport, error) {
			return &report.ExpenseReport{ID: id, Status: report.StatusFinanceApproved}, nil
		},
	}
	router := newTestRouter(reports, &mockApprovalService{}, &mockReceiptStore{})

	w := doJSON(t, router, http.MethodGet, "/api/reports/rep-1/form", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "rep-1")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestDownloadForm_NotApproved(t *testing.T) {
	reports := &mockReportService{
		getFunc: func(ctx context.Context, id string) (*report.ExpenseReport, error) {
			return &report.ExpenseReport{ID: id, Status: report.StatusSubmitted}, nil
		},
	}
	router := newTestRouter(reports, &mockApprovalService{}, &mockReceiptStore{})

	w := doJSON(t, router, http.MethodGet, "/api/reports/rep-1/form", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListReports_DefaultPagination(t *testing.T) {
	reports := &mockReportService{
		listFunc: func(ctx context.Context, status report.Status, limit, offset int) ([]*report.ExpenseReport, error) {
			assert.Equal(t, report.StatusSubmitted, status)
			assert.Equal(t, 20, limit)
			assert.Equal(t, 0, offset)
			return []*report.ExpenseReport{{ID: "rep-1"}}, nil
		},
	}
	router := newTestRouter(reports, &mockApprovalService{}, &mockReceiptStore{})

	w := doJSON(t, router, http.MethodGet, "/api/reports?status=SUBMITTED", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
