package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/services"
	xhttp "github.com/andrewPaul004/ColorGarbApp-sub004/pkg/http"
)

type AuditService interface {
	LogCommunication(ctx context.Context, log *model.CommunicationLog) (*model.CommunicationLog, error)
	Search(ctx context.Context, f model.CommunicationLogFilter) (*model.SearchResult, error)
	GetOrderCommunicationHistory(ctx context.Context, orderID int64, principal model.Principal) ([]*model.CommunicationLog, error)
	GetDeliveryStatusSummary(ctx context.Context, organizationID int64, from, to time.Time) (*model.DeliveryStatusSummary, error)
	RecordMessageEdit(ctx context.Context, messageID int64, principal model.Principal, previousContent, changeReason string) (*model.MessageEdit, error)
	GetMessageEditHistory(ctx context.Context, messageID int64, principal model.Principal) ([]*model.MessageEdit, error)
	ValidateAuditAccess(principal model.Principal, organizationID int64) bool
}

type AuditHandler struct {
	svc AuditService
}

func NewAuditHandler(auditService AuditService) *AuditHandler {
	return &AuditHandler{svc: auditService}
}

func RegisterAuditRoutes(e *router.Group, h *AuditHandler) {
	e.GET("/communication-audit/logs", h.SearchLogs)
	e.POST("/communication-audit/logs", h.CreateLog)
	e.GET("/communication-audit/orders/{orderId}", h.GetOrderHistory)
	e.GET("/communication-audit/delivery-summary", h.GetDeliverySummary)
	e.GET("/communication-audit/messages/{messageId}/edits", h.GetEditHistory)
	e.POST("/communication-audit/messages/{messageId}/edits", h.RecordEdit)
}

type createLogRequest struct {
	OrderID           int64  `json:"order_id"`
	Type              string `json:"type"`
	SenderID          int64  `json:"sender_id"`
	RecipientID       *int64 `json:"recipient_id,omitempty"`
	RecipientEmail    string `json:"recipient_email,omitempty"`
	RecipientPhone    string `json:"recipient_phone,omitempty"`
	Subject           string `json:"subject,omitempty"`
	Content           string `json:"content"`
	TemplateUsed      string `json:"template_used,omitempty"`
	DeliveryStatus    string `json:"delivery_status,omitempty"`
	ExternalMessageID string `json:"external_message_id,omitempty"`
	SentAt            string `json:"sent_at,omitempty"`
}

type recordEditRequest struct {
	PreviousContent string `json:"previous_content"`
	ChangeReason    string `json:"change_reason,omitempty"`
}

type historyResponse struct {
	Items []*model.CommunicationLog `json:"items"`
	Total int                       `json:"total"`
}

type editHistoryResponse struct {
	Items []*model.MessageEdit `json:"items"`
	Total int                  `json:"total"`
}

type deliverySummaryResponse struct {
	*model.DeliveryStatusSummary
	DeliverySuccessRate float64 `json:"delivery_success_rate"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *AuditHandler) SearchLogs(ctx *xhttp.RequestCtx) {
	principal, ok := principalFrom(ctx)
	if !ok {
		writeError(ctx, 401, "unauthorized")
		return
	}

	f, err := parseFilter(ctx)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}

	if err := scopeFilterToPrincipal(&f, principal); err != nil {
		writeError(ctx, 403, err.Error())
		return
	}

	result, err := h.svc.Search(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, result)
}

func (h *AuditHandler) CreateLog(ctx *xhttp.RequestCtx) {
	principal, ok := principalFrom(ctx)
	if !ok {
		writeError(ctx, 401, "unauthorized")
		return
	}
	if !principal.IsStaff() {
		writeError(ctx, 403, "only staff may record communication events")
		return
	}

	var req createLogRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	log := &model.CommunicationLog{
		OrderID:        req.OrderID,
		Type:           model.CommunicationType(req.Type),
		SenderID:       req.SenderID,
		RecipientID:    req.RecipientID,
		RecipientEmail: req.RecipientEmail,
		RecipientPhone: req.RecipientPhone,
		Subject:        req.Subject,
		Content:        req.Content,
		TemplateUsed:   req.TemplateUsed,
		DeliveryStatus: model.DeliveryStatus(req.DeliveryStatus),
	}
	if req.ExternalMessageID != "" {
		log.ExternalMessageID = &req.ExternalMessageID
	}
	if req.SentAt != "" {
		t, err := parseTime(req.SentAt)
		if err != nil {
			writeError(ctx, 400, "invalid sent_at: "+err.Error())
			return
		}
		log.SentAt = t
	}

	created, err := h.svc.LogCommunication(ctx, log)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, created)
}

func (h *AuditHandler) GetOrderHistory(ctx *xhttp.RequestCtx) {
	principal, ok := principalFrom(ctx)
	if !ok {
		writeError(ctx, 401, "unauthorized")
		return
	}

	orderID, err := pathInt64(ctx, "orderId")
	if err != nil {
		writeError(ctx, 400, "invalid order id")
		return
	}

	items, err := h.svc.GetOrderCommunicationHistory(ctx, orderID, principal)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, historyResponse{Items: items, Total: len(items)})
}

func (h *AuditHandler) GetDeliverySummary(ctx *xhttp.RequestCtx) {
	principal, ok := principalFrom(ctx)
	if !ok {
		writeError(ctx, 401, "unauthorized")
		return
	}

	orgID := principal.OrganizationID
	if v := query(ctx, "organization_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(ctx, 400, "invalid organization_id")
			return
		}
		orgID = id
	}
	if orgID == 0 {
		writeError(ctx, 400, "organization_id is required")
		return
	}
	if !h.svc.ValidateAuditAccess(principal, orgID) {
		writeError(ctx, 403, "access denied for organization")
		return
	}

	var from, to time.Time
	if v := query(ctx, "from"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			writeError(ctx, 400, "invalid from: "+err.Error())
			return
		}
		from = t
	}
	if v := query(ctx, "to"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			writeError(ctx, 400, "invalid to: "+err.Error())
			return
		}
		to = t
	}

	summary, err := h.svc.GetDeliveryStatusSummary(ctx, orgID, from, to)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, deliverySummaryResponse{
		DeliveryStatusSummary: summary,
		DeliverySuccessRate:   summary.DeliverySuccessRate(),
	})
}

func (h *AuditHandler) GetEditHistory(ctx *xhttp.RequestCtx) {
	principal, ok := principalFrom(ctx)
	if !ok {
		writeError(ctx, 401, "unauthorized")
		return
	}

	messageID, err := pathInt64(ctx, "messageId")
	if err != nil {
		writeError(ctx, 400, "invalid message id")
		return
	}

	items, err := h.svc.GetMessageEditHistory(ctx, messageID, principal)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, editHistoryResponse{Items: items, Total: len(items)})
}

func (h *AuditHandler) RecordEdit(ctx *xhttp.RequestCtx) {
	principal, ok := principalFrom(ctx)
	if !ok {
		writeError(ctx, 401, "unauthorized")
		return
	}

	messageID, err := pathInt64(ctx, "messageId")
	if err != nil {
		writeError(ctx, 400, "invalid message id")
		return
	}

	var req recordEditRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	edit, err := h.svc.RecordMessageEdit(ctx, messageID, principal, req.PreviousContent, req.ChangeReason)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, edit)
}

/* -------------------------------- Helpers ------------------------------------ */

// parseFilter maps query params onto the search filter. Unparseable numeric
// or time values are rejected rather than silently dropped.
func parseFilter(ctx *xhttp.RequestCtx) (model.CommunicationLogFilter, error) {
	var f model.CommunicationLogFilter

	if v := query(ctx, "organization_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid organization_id")
		}
		f.OrganizationID = &id
	}
	if v := query(ctx, "order_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid order_id")
		}
		f.OrderID = &id
	}
	if v := query(ctx, "sender_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid sender_id")
		}
		f.SenderID = &id
	}
	if v := query(ctx, "recipient_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid recipient_id")
		}
		f.RecipientID = &id
	}
	if v := query(ctx, "type"); v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				f.Types = append(f.Types, model.CommunicationType(part))
			}
		}
	}
	if v := query(ctx, "status"); v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				f.Statuses = append(f.Statuses, model.DeliveryStatus(part))
			}
		}
	}
	if v := query(ctx, "from"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			return f, errors.New("invalid from date")
		}
		f.From = &t
	}
	if v := query(ctx, "to"); v != "" {
		t, err := parseTime(v)
		if err != nil {
			return f, errors.New("invalid to date")
		}
		f.To = &t
	}
	f.SearchTerm = query(ctx, "search")
	f.SortBy = query(ctx, "sort_by")
	if strings.EqualFold(query(ctx, "order"), "asc") {
		f.Asc = true
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}

	return f, nil
}

// scopeFilterToPrincipal pins non-staff callers to their own organization.
// Staff may search any organization or none.
func scopeFilterToPrincipal(f *model.CommunicationLogFilter, principal model.Principal) error {
	if principal.IsStaff() {
		return nil
	}
	if f.OrganizationID != nil && *f.OrganizationID != principal.OrganizationID {
		return errors.New("access denied for organization")
	}
	orgID := principal.OrganizationID
	f.OrganizationID = &orgID
	return nil
}

func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		writeError(ctx, 400, err.Error())
	case errors.Is(err, services.ErrAccessDenied):
		writeError(ctx, 403, err.Error())
	case errors.Is(err, services.ErrOrderNotFound), errors.Is(err, services.ErrLogNotFound):
		writeError(ctx, 404, err.Error())
	default:
		writeError(ctx, 500, "internal error")
	}
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, _ := ctx.UserValue(name).(string)
	return strconv.ParseInt(v, 10, 64)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
