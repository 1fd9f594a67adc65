package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/fasthttp/router"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/export"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	xhttp "github.com/andrewPaul004/ColorGarbApp-sub004/pkg/http"
)

type ExportService interface {
	Export(ctx context.Context, req model.ExportRequest) (*export.Result, error)
	GenerateComplianceReport(ctx context.Context, req model.ComplianceReportRequest) ([]byte, error)
	GetJobStatus(jobID string) *model.ExportJob
}

// RateLimiter bounds export requests per organization.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Limit() int64
}

type ExportHandler struct {
	svc     ExportService
	limiter RateLimiter
}

func NewExportHandler(exportService ExportService, limiter RateLimiter) *ExportHandler {
	return &ExportHandler{svc: exportService, limiter: limiter}
}

func RegisterExportRoutes(e *router.Group, h *ExportHandler) {
	e.POST("/communication-export/csv", h.ExportCSV)
	e.POST("/communication-export/excel", h.ExportExcel)
	e.POST("/communication-export/compliance-report", h.ComplianceReport)
	e.GET("/communication-export/jobs/{jobId}/status", h.JobStatus)
	e.GET("/communication-export/jobs/{jobId}/download", h.JobDownload)
}

type exportRequestBody struct {
	OrganizationID  *int64   `json:"organization_id,omitempty"`
	OrderID         *int64   `json:"order_id,omitempty"`
	SenderID        *int64   `json:"sender_id,omitempty"`
	RecipientID     *int64   `json:"recipient_id,omitempty"`
	Types           []string `json:"types,omitempty"`
	Statuses        []string `json:"statuses,omitempty"`
	From            string   `json:"from,omitempty"`
	To              string   `json:"to,omitempty"`
	SearchTerm      string   `json:"search_term,omitempty"`
	IncludeContent  bool     `json:"include_content"`
	IncludeMetadata bool     `json:"include_metadata"`
	MaxRecords      int      `json:"max_records,omitempty"`
	DateFormat      string   `json:"date_format,omitempty"`
}

type complianceReportBody struct {
	OrganizationID         int64  `json:"organization_id"`
	From                   string `json:"from,omitempty"`
	To                     string `json:"to,omitempty"`
	IncludeFailureAnalysis bool   `json:"include_failure_analysis"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *ExportHandler) ExportCSV(ctx *xhttp.RequestCtx) {
	h.export(ctx, model.ExportFormatCSV)
}

func (h *ExportHandler) ExportExcel(ctx *xhttp.RequestCtx) {
	h.export(ctx, model.ExportFormatExcel)
}

// export runs the shared CSV/Excel flow: small match sets come back as a file
// body, large ones as a 202 with a pollable job.
func (h *ExportHandler) export(ctx *xhttp.RequestCtx, format model.ExportFormat) {
	principal, ok := principalFrom(ctx)
	if !ok {
		writeError(ctx, 401, "unauthorized")
		return
	}

	var body exportRequestBody
	if err := readJSON(ctx, &body); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	req, err := buildExportRequest(body, format)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	if err := scopeFilterToPrincipal(&req.Filter, principal); err != nil {
		writeError(ctx, 403, err.Error())
		return
	}
	req.RequestedBy = principal

	if !h.allow(ctx, req.Filter.OrganizationID, principal) {
		writeError(ctx, 429, "export rate limit exceeded, try again later")
		return
	}

	result, err := h.svc.Export(ctx, req)
	if err != nil {
		writeExportError(ctx, err)
		return
	}

	if result.Inline {
		ctx.Response.Header.Set("Content-Type", result.ContentType)
		ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
		ctx.Response.SetStatusCode(200)
		ctx.Response.SetBodyRaw(result.Data)
		return
	}

	writeJSON(ctx, 202, result.Job)
}

func (h *ExportHandler) ComplianceReport(ctx *xhttp.RequestCtx) {
	principal, ok := principalFrom(ctx)
	if !ok {
		writeError(ctx, 401, "unauthorized")
		return
	}

	var body complianceReportBody
	if err := readJSON(ctx, &body); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	orgID := body.OrganizationID
	if orgID == 0 {
		orgID = principal.OrganizationID
	}
	if !principal.IsStaff() && orgID != principal.OrganizationID {
		writeError(ctx, 403, "access denied for organization")
		return
	}

	req := model.ComplianceReportRequest{
		OrganizationID:         orgID,
		IncludeFailureAnalysis: body.IncludeFailureAnalysis,
	}
	if body.From != "" {
		t, err := parseTime(body.From)
		if err != nil {
			writeError(ctx, 400, "invalid from: "+err.Error())
			return
		}
		req.From = t
	}
	if body.To != "" {
		t, err := parseTime(body.To)
		if err != nil {
			writeError(ctx, 400, "invalid to: "+err.Error())
			return
		}
		req.To = t
	}

	if !h.allow(ctx, &orgID, principal) {
		writeError(ctx, 429, "export rate limit exceeded, try again later")
		return
	}

	data, err := h.svc.GenerateComplianceReport(ctx, req)
	if err != nil {
		writeExportError(ctx, err)
		return
	}

	ctx.Response.Header.Set("Content-Type", export.ContentTypePDF)
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="compliance-report.pdf"`)
	ctx.Response.SetStatusCode(200)
	ctx.Response.SetBodyRaw(data)
}

func (h *ExportHandler) JobStatus(ctx *xhttp.RequestCtx) {
	principal, ok := principalFrom(ctx)
	if !ok {
		writeError(ctx, 401, "unauthorized")
		return
	}

	jobID, _ := ctx.UserValue("jobId").(string)
	job := h.svc.GetJobStatus(jobID)
	// Jobs from other users are indistinguishable from unknown ids.
	if job == nil || !job.AccessibleBy(principal) {
		writeError(ctx, 404, "export job not found")
		return
	}
	writeJSON(ctx, 200, job)
}

func (h *ExportHandler) JobDownload(ctx *xhttp.RequestCtx) {
	principal, ok := principalFrom(ctx)
	if !ok {
		writeError(ctx, 401, "unauthorized")
		return
	}

	jobID, _ := ctx.UserValue("jobId").(string)
	job := h.svc.GetJobStatus(jobID)
	if job == nil || !job.AccessibleBy(principal) {
		writeError(ctx, 404, "export job not found")
		return
	}

	switch job.Status {
	case model.JobStatusProcessing:
		writeError(ctx, 409, "export job still processing")
	case model.JobStatusFailed:
		writeError(ctx, 410, "export job failed: "+job.Error)
	default:
		ctx.Response.Header.Set("Content-Type", job.ContentType)
		ctx.Response.Header.Set("Content-Disposition", `attachment; filename="`+job.FileName+`"`)
		ctx.Response.SetStatusCode(200)
		ctx.Response.SetBodyRaw(job.Artifact)
	}
}

/* -------------------------------- Helpers ------------------------------------ */

// allow applies the per-organization rate limit. Staff requests without an
// organization scope are keyed by user instead.
func (h *ExportHandler) allow(ctx *xhttp.RequestCtx, orgID *int64, principal model.Principal) bool {
	if h.limiter == nil {
		return true
	}
	key := "user:" + strconv.FormatInt(principal.UserID, 10)
	if orgID != nil && *orgID != 0 {
		key = "org:" + strconv.FormatInt(*orgID, 10)
	}
	allowed, err := h.limiter.Allow(ctx, key)
	if err != nil {
		// Rate limiter outage must not take exports down with it.
		return true
	}
	return allowed
}

func buildExportRequest(body exportRequestBody, format model.ExportFormat) (model.ExportRequest, error) {
	req := model.ExportRequest{
		Format:          format,
		IncludeContent:  body.IncludeContent,
		IncludeMetadata: body.IncludeMetadata,
		MaxRecords:      body.MaxRecords,
		DateFormat:      body.DateFormat,
	}
	if req.MaxRecords < 0 {
		return req, errors.New("max_records cannot be negative")
	}

	req.Filter.OrganizationID = body.OrganizationID
	req.Filter.OrderID = body.OrderID
	req.Filter.SenderID = body.SenderID
	req.Filter.RecipientID = body.RecipientID
	req.Filter.SearchTerm = body.SearchTerm
	for _, t := range body.Types {
		req.Filter.Types = append(req.Filter.Types, model.CommunicationType(t))
	}
	for _, s := range body.Statuses {
		req.Filter.Statuses = append(req.Filter.Statuses, model.DeliveryStatus(s))
	}
	if body.From != "" {
		t, err := parseTime(body.From)
		if err != nil {
			return req, errors.New("invalid from date")
		}
		req.Filter.From = &t
	}
	if body.To != "" {
		t, err := parseTime(body.To)
		if err != nil {
			return req, errors.New("invalid to date")
		}
		req.Filter.To = &t
	}

	return req, nil
}

// writeExportError reports render failures. Request shape problems are caught
// before the service call, so anything surfacing here is a server-side fault.
func writeExportError(ctx *xhttp.RequestCtx, err error) {
	writeError(ctx, 500, err.Error())
}
