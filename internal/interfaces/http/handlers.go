package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusfin/expense-approval/internal/application/port"
	"github.com/campusfin/expense-approval/internal/application/service"
	"github.com/campusfin/expense-approval/internal/domain/report"
	"github.com/campusfin/expense-approval/internal/domain/workflow"
	"github.com/campusfin/expense-approval/internal/export"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	reportService   service.ReportService
	approvalService service.ApprovalService
	receipts        port.ReceiptStore
	forms           *export.FormGenerator
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	reportService service.ReportService,
	approvalService service.ApprovalService,
	receipts port.ReceiptStore,
	forms *export.FormGenerator,
	logger Logger,
) *Handlers {
	return &Handlers{
		reportService:   reportService,
		approvalService: approvalService,
		receipts:        receipts,
		forms:           forms,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateReportRequest carries the fields to open a draft report
type CreateReportRequest struct {
	SubmitterID   string    `json:"submitter_id" binding:"required"`
	SubmitterName string    `json:"submitter_name" binding:"required"`
	SubmitterRole string    `json:"submitter_role" binding:"required"`
	Department    string    `json:"department" binding:"required"`
	PeriodStart   time.Time `json:"period_start" binding:"required"`
	PeriodEnd     time.Time `json:"period_end" binding:"required"`
	Purpose       string    `json:"purpose" binding:"required"`
	ReportType    string    `json:"report_type" binding:"required"`
	FundingSource string    `json:"funding_source"`
}

// ItemRequest carries the fields of a new expense item
type ItemRequest struct {
	Date          time.Time `json:"date" binding:"required"`
	Category      string    `json:"category" binding:"required"`
	Vendor        string    `json:"vendor" binding:"required"`
	Description   string    `json:"description" binding:"required"`
	AmountCents   int64     `json:"amount_cents" binding:"required"`
	PaymentMethod string    `json:"payment_method" binding:"required"`
	ReceiptRef    string    `json:"receipt_ref"`
	ChargeToGrant bool      `json:"charge_to_grant"`
}

// ItemPatchRequest carries a partial item update; absent fields are left
// untouched
type ItemPatchRequest struct {
	Date          *time.Time `json:"date"`
	Category      *string    `json:"category"`
	Vendor        *string    `json:"vendor"`
	Description   *string    `json:"description"`
	AmountCents   *int64     `json:"amount_cents"`
	PaymentMethod *string    `json:"payment_method"`
	ReceiptRef    *string    `json:"receipt_ref"`
	ChargeToGrant *bool      `json:"charge_to_grant"`
}

// ActorRequest identifies the acting user; supplied by the auth layer in
// front of this service and trusted as-is
type ActorRequest struct {
	ID         string `json:"id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Role       string `json:"role" binding:"required"`
	Department string `json:"department"`
}

// ActionRequest carries one approval decision
type ActionRequest struct {
	Action    string       `json:"action" binding:"required"`
	Actor     ActorRequest `json:"actor" binding:"required"`
	Remarks   string       `json:"remarks"`
	FundType  string       `json:"fund_type"`
	ProjectID string       `json:"project_id"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// CreateReport handles POST /api/reports
func (h *Handlers) CreateReport(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	rep, err := h.reportService.CreateReport(c.Request.Context(), service.CreateReportInput{
		SubmitterID:   req.SubmitterID,
		SubmitterName: req.SubmitterName,
		SubmitterRole: report.Role(req.SubmitterRole),
		Department:    report.Department(req.Department),
		PeriodStart:   req.PeriodStart,
		PeriodEnd:     req.PeriodEnd,
		Purpose:       req.Purpose,
		ReportType:    report.ReportType(req.ReportType),
		FundingSource: req.FundingSource,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: rep})
}

// GetReport handles GET /api/reports/:id
func (h *Handlers) GetReport(c *gin.Context) {
	rep, err := h.reportService.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rep})
}

// ListReports handles GET /api/reports
func (h *Handlers) ListReports(c *gin.Context) {
	var query struct {
		Status string `form:"status"`
		Limit  int    `form:"limit"`
		Offset int    `form:"offset"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.badRequest(c, err)
		return
	}
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 20
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	reports, err := h.reportService.ListReports(c.Request.Context(), report.Status(query.Status), query.Limit, query.Offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: reports})
}

// AddItem handles POST /api/reports/:id/items
func (h *Handlers) AddItem(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	rep, err := h.reportService.AddItem(c.Request.Context(), c.Param("id"), service.ItemInput{
		Date:          req.Date,
		Category:      report.Category(req.Category),
		Vendor:        req.Vendor,
		Description:   req.Description,
		AmountCents:   req.AmountCents,
		PaymentMethod: report.PaymentMethod(req.PaymentMethod),
		ReceiptRef:    req.ReceiptRef,
		ChargeToGrant: req.ChargeToGrant,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rep})
}

// UpdateItem handles PATCH /api/reports/:id/items/:itemID
func (h *Handlers) UpdateItem(c *gin.Context) {
	var req ItemPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	patch := report.ItemPatch{
		Date:          req.Date,
		Vendor:        req.Vendor,
		Description:   req.Description,
		AmountCents:   req.AmountCents,
		ReceiptRef:    req.ReceiptRef,
		ChargeToGrant: req.ChargeToGrant,
	}
	if req.Category != nil {
		category := report.Category(*req.Category)
		patch.Category = &category
	}
	if req.PaymentMethod != nil {
		method := report.PaymentMethod(*req.PaymentMethod)
		patch.PaymentMethod = &method
	}

	rep, err := h.reportService.UpdateItem(c.Request.Context(), c.Param("id"), c.Param("itemID"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rep})
}

// RemoveItem handles DELETE /api/reports/:id/items/:itemID
func (h *Handlers) RemoveItem(c *gin.Context) {
	rep, err := h.reportService.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("itemID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rep})
}

// SubmitReport handles POST /api/reports/:id/submit
func (h *Handlers) SubmitReport(c *gin.Context) {
	rep, err := h.reportService.SubmitReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rep})
}

// ApplyAction handles POST /api/reports/:id/actions
func (h *Handlers) ApplyAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	actor := workflow.Actor{
		ID:         req.Actor.ID,
		Name:       req.Actor.Name,
		Role:       report.Role(req.Actor.Role),
		Department: report.Department(req.Actor.Department),
	}
	payload := workflow.ActionPayload{
		Remarks:   req.Remarks,
		FundType:  report.FundType(req.FundType),
		ProjectID: req.ProjectID,
	}

	rep, err := h.approvalService.ApplyAction(c.Request.Context(), c.Param("id"), actor, workflow.Action(req.Action), payload)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: rep})
}

// ResolveReceipt handles GET /api/reports/:id/receipts/:ref
func (h *Handlers) ResolveReceipt(c *gin.Context) {
	rep, err := h.reportService.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	ref := c.Param("ref")
	found := false
	for i := range rep.Items {
		if rep.Items[i].ReceiptRef == ref {
			found = true
			break
		}
	}
	if !found {
		h.writeError(c, &report.NotFoundError{Kind: "receipt", ID: ref})
		return
	}

	url, err := h.receipts.ResolveURL(c.Request.Context(), ref)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"url": url}})
}

// DownloadForm handles GET /api/reports/:id/form
func (h *Handlers) DownloadForm(c *gin.Context) {
	rep, err := h.reportService.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	data, err := h.forms.Generate(rep)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="reimbursement-form-`+rep.ID+`.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
}

// writeError maps domain errors to HTTP status codes
func (h *Handlers) writeError(c *gin.Context, err error) {
	var validationErr *report.ValidationError
	var notFoundErr *report.NotFoundError
	var forbiddenErr *report.ForbiddenTransitionError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.As(err, &forbiddenErr):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, report.ErrVersionConflict):
		c.JSON(http.StatusConflict, Response{Success: false, Error: "report was modified concurrently, retry"})
	case errors.Is(err, export.ErrNotApproved):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Unhandled error", "error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}
