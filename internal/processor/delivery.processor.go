package processor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/queue"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/services"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/logger"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/prom"
)

type DeliveryStatusUpdater interface {
	UpdateDeliveryStatus(ctx context.Context, externalID string, status model.DeliveryStatus, provider, details string, occurredAt time.Time) error
}

// DeliveryWebhookProcessor applies provider delivery callbacks to the audit
// store. Each event carries a provider-unique event id, so duplicates and
// reclaimed stream entries collapse to a single status update.
type DeliveryWebhookProcessor struct {
	audit       DeliveryStatusUpdater
	idempotency *IdempotencyService
}

func NewDeliveryWebhookProcessor(audit DeliveryStatusUpdater, idempotency *IdempotencyService) *DeliveryWebhookProcessor {
	return &DeliveryWebhookProcessor{
		audit:       audit,
		idempotency: idempotency,
	}
}

func (p *DeliveryWebhookProcessor) GetType() string {
	return "delivery-webhook"
}

// Process applies one webhook event with idempotency guarantees
func (p *DeliveryWebhookProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	// Step 1: Parse event
	var event model.DeliveryWebhook
	if err := json.Unmarshal(queueMessage.Data, &event); err != nil {
		logger.Error("Failed to unmarshal webhook event", "error", err)
		prom.IncWebhookProcessed("invalid")
		return err // Return error to trigger DLQ move
	}

	if event.EventID == "" || event.ExternalMessageID == "" {
		logger.Warn("Webhook event missing identifiers, dropping",
			"event_id", event.EventID,
			"external_message_id", event.ExternalMessageID)
		prom.IncWebhookProcessed("invalid")
		return nil // ACK - malformed events never succeed on retry
	}

	// Step 2: Acquire processing lock and check idempotency
	procCtx, err := p.idempotency.AcquireProcessingLock(ctx, event.EventID)
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			// Event already applied - ACK to remove from queue
			logger.Info("Webhook event already processed, skipping", "event_id", event.EventID)
			prom.IncWebhookProcessed("duplicate")
			return nil
		}
		if errors.Is(err, ErrMaxRetriesExceeded) {
			logger.Error("Max retries exceeded for webhook event", "event_id", event.EventID)
			prom.IncWebhookProcessed("exhausted")
			return nil // ACK to move to DLQ
		}
		if errors.Is(err, ErrLockAcquireFailed) {
			// Another consumer is processing - NACK to retry later
			logger.Info("Lock held by another consumer, will retry", "event_id", event.EventID)
			return errors.New("lock held by another consumer")
		}
		logger.Error("Failed to acquire lock", "event_id", event.EventID, "error", err)
		return err
	}

	// Ensure lock is released on exit (if not already marked success/failure)
	defer func() {
		if procCtx.lockAcquired {
			p.idempotency.ReleaseLock(ctx, procCtx)
		}
	}()

	logger.Info("Processing webhook event",
		"event_id", event.EventID,
		"external_message_id", event.ExternalMessageID,
		"status", event.Status,
		"retry_count", procCtx.RetryCount,
		"is_retry", procCtx.IsRetry)

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	// Step 3: Apply the status update
	err = p.audit.UpdateDeliveryStatus(ctx, event.ExternalMessageID, event.Status, event.Provider, event.StatusDetails, occurredAt)
	if err != nil {
		if errors.Is(err, services.ErrLogNotFound) {
			// No communication log carries this external id. Retrying will not
			// help, so record the marker and ACK.
			logger.Warn("Webhook references unknown message, dropping",
				"event_id", event.EventID,
				"external_message_id", event.ExternalMessageID)
			prom.IncWebhookProcessed("unknown_message")
			if markErr := p.idempotency.MarkSuccess(ctx, procCtx); markErr != nil {
				logger.Error("Failed to mark success", "event_id", event.EventID, "error", markErr)
			}
			return nil
		}
		if errors.Is(err, services.ErrInvalidRequest) {
			logger.Warn("Webhook event rejected", "event_id", event.EventID, "error", err)
			prom.IncWebhookProcessed("invalid")
			if markErr := p.idempotency.MarkSuccess(ctx, procCtx); markErr != nil {
				logger.Error("Failed to mark success", "event_id", event.EventID, "error", markErr)
			}
			return nil
		}

		// Transient failure (database down etc) - mark failure and retry
		logger.Error("Failed to apply webhook event", "event_id", event.EventID, "error", err)
		prom.IncWebhookProcessed("error")
		if markErr := p.idempotency.MarkFailure(ctx, procCtx, err); markErr != nil {
			logger.Error("Failed to mark failure", "event_id", event.EventID, "error", markErr)
		}
		return err // NACK to retry from queue
	}

	// Step 4: Mark as successfully processed (sets 24-hour processed marker)
	prom.IncWebhookProcessed("applied")
	if markErr := p.idempotency.MarkSuccess(ctx, procCtx); markErr != nil {
		logger.Error("Failed to mark success", "event_id", event.EventID, "error", markErr)
		// Continue - the status update was applied
	}

	return nil
}
