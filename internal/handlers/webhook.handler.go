package handlers

import (
	"context"
	"crypto/subtle"

	"github.com/fasthttp/router"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	xhttp "github.com/andrewPaul004/ColorGarbApp-sub004/pkg/http"
)

// WebhookPublisher pushes accepted delivery events onto the webhook stream.
type WebhookPublisher interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

// WebhookHandler accepts provider delivery-status callbacks. The handler only
// validates and enqueues; the processor applies the update asynchronously, so
// providers get a fast 202 even when the database is slow.
type WebhookHandler struct {
	publisher WebhookPublisher
	token     string
}

func NewWebhookHandler(publisher WebhookPublisher, providerToken string) *WebhookHandler {
	return &WebhookHandler{
		publisher: publisher,
		token:     providerToken,
	}
}

func RegisterWebhookRoutes(e *router.Group, h *WebhookHandler) {
	e.POST("/webhooks/delivery", h.ReceiveDeliveryWebhook)
}

func (h *WebhookHandler) ReceiveDeliveryWebhook(ctx *xhttp.RequestCtx) {
	if !h.authorized(ctx) {
		writeError(ctx, 401, "invalid provider token")
		return
	}

	var event model.DeliveryWebhook
	if err := readJSON(ctx, &event); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	if event.EventID == "" {
		writeError(ctx, 400, "event_id is required")
		return
	}
	if event.ExternalMessageID == "" {
		writeError(ctx, 400, "external_message_id is required")
		return
	}
	if !event.Status.Valid() {
		writeError(ctx, 400, "unknown delivery status")
		return
	}

	_, err := h.publisher.PublishJSON(ctx, event, map[string]string{"provider": event.Provider})
	if err != nil {
		writeError(ctx, 500, "failed to enqueue webhook event")
		return
	}

	writeJSON(ctx, 202, map[string]string{"status": "accepted", "event_id": event.EventID})
}

func (h *WebhookHandler) authorized(ctx *xhttp.RequestCtx) bool {
	if h.token == "" {
		return true
	}
	got := ctx.Request.Header.Peek("X-Provider-Token")
	return subtle.ConstantTimeCompare(got, []byte(h.token)) == 1
}
