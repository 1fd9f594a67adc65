package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/repository"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrLogNotFound    = errors.New("communication log not found")
	ErrAccessDenied   = errors.New("access denied for organization")
	ErrInvalidRequest = errors.New("invalid request")
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type AuditRepository interface {
	Create(ctx context.Context, log *model.CommunicationLog) (*model.CommunicationLog, error)
	Update(ctx context.Context, log *model.CommunicationLog) error
	Search(ctx context.Context, f model.CommunicationLogFilter) ([]*model.CommunicationLog, int64, error)
	Count(ctx context.Context, f model.CommunicationLogFilter) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.CommunicationLog, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.CommunicationLog, error)
	GetOrderHistory(ctx context.Context, orderID int64) ([]*model.CommunicationLog, error)
	CreateDeliveryLog(ctx context.Context, dl *model.NotificationDeliveryLog) (*model.NotificationDeliveryLog, error)
	CountByStatus(ctx context.Context, f model.CommunicationLogFilter) (map[model.DeliveryStatus]int64, error)
	CountByType(ctx context.Context, f model.CommunicationLogFilter) (map[model.CommunicationType]int64, error)
	GetOrCreateAuditTrail(ctx context.Context, messageID int64, ipAddress, userAgent string) (*model.MessageAuditTrail, error)
	CreateMessageEdit(ctx context.Context, edit *model.MessageEdit) (*model.MessageEdit, error)
	GetEditHistory(ctx context.Context, messageID int64) ([]*model.MessageEdit, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type OrderRepository interface {
	Get(ctx context.Context, id int64) (*model.Order, error)
}

type AuditService struct {
	auditRepo AuditRepository
	orderRepo OrderRepository
}

func NewAuditService(auditRepo AuditRepository, orderRepo OrderRepository) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		orderRepo: orderRepo,
	}
}

// LogCommunication persists a communication event after confirming the
// referenced order exists. A missing order is a validation failure, never a
// silent drop.
func (s *AuditService) LogCommunication(ctx context.Context, log *model.CommunicationLog) (*model.CommunicationLog, error) {
	if err := log.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	if _, err := s.orderRepo.Get(ctx, log.OrderID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("validate order: %w", err)
	}

	if log.SentAt.IsZero() {
		log.SentAt = time.Now().UTC()
	}
	if log.DeliveryStatus == "" {
		log.DeliveryStatus = model.DeliveryStatusSent
	}

	return s.auditRepo.Create(ctx, log)
}

// UpdateDeliveryStatus applies a provider-reported status transition. Unknown
// external ids fail with ErrLogNotFound so external systems cannot forge
// status updates for messages this service never sent. Any status may
// overwrite any other; webhooks are not guaranteed to arrive in order.
func (s *AuditService) UpdateDeliveryStatus(ctx context.Context, externalID string, status model.DeliveryStatus, provider, details string, occurredAt time.Time) error {
	if externalID == "" {
		return fmt.Errorf("%w: external id is required", ErrInvalidRequest)
	}

	log, err := s.auditRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLogNotFound
		}
		return err
	}

	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return s.auditRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		dl := &model.NotificationDeliveryLog{
			CommunicationLogID: log.ID,
			DeliveryProvider:   provider,
			ExternalID:         externalID,
			Status:             status,
			StatusDetails:      details,
			UpdatedAt:          occurredAt,
		}
		if _, err := s.auditRepo.CreateDeliveryLog(ctx, dl); err != nil {
			return fmt.Errorf("create delivery log: %w", err)
		}

		log.DeliveryStatus = status
		switch status {
		case model.DeliveryStatusDelivered:
			log.DeliveredAt = &occurredAt
		case model.DeliveryStatusRead:
			log.ReadAt = &occurredAt
		}
		if err := s.auditRepo.Update(ctx, log); err != nil {
			return fmt.Errorf("update communication log: %w", err)
		}
		return nil
	})
}

// Search returns a page of logs with pagination metadata and a status
// breakdown computed over the returned page (not the full match set).
func (s *AuditService) Search(ctx context.Context, f model.CommunicationLogFilter) (*model.SearchResult, error) {
	f.Limit = clampPageSize(f.Limit)

	logs, total, err := s.auditRepo.Search(ctx, f)
	if err != nil {
		return nil, err
	}

	summary := make(map[model.DeliveryStatus]int64)
	for _, log := range logs {
		summary[log.DeliveryStatus]++
	}

	return &model.SearchResult{
		Logs:          logs,
		TotalCount:    total,
		Limit:         f.Limit,
		Offset:        f.Offset,
		HasNextPage:   int64(f.Offset+len(logs)) < total,
		StatusSummary: summary,
	}, nil
}

// Count returns the match count for a filter without transferring rows.
func (s *AuditService) Count(ctx context.Context, f model.CommunicationLogFilter) (int64, error) {
	return s.auditRepo.Count(ctx, f)
}

// GetOrderCommunicationHistory is the access-control boundary of the
// subsystem: staff may read any order's history, everyone else only their own
// organization's.
func (s *AuditService) GetOrderCommunicationHistory(ctx context.Context, orderID int64, principal model.Principal) ([]*model.CommunicationLog, error) {
	order, err := s.orderRepo.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !principal.IsStaff() && principal.OrganizationID != order.OrganizationID {
		return nil, ErrAccessDenied
	}

	return s.auditRepo.GetOrderHistory(ctx, orderID)
}

// GetDeliveryStatusSummary aggregates counts by status and type over a
// date-bounded, organization-scoped window.
func (s *AuditService) GetDeliveryStatusSummary(ctx context.Context, organizationID int64, from, to time.Time) (*model.DeliveryStatusSummary, error) {
	if organizationID == 0 {
		return nil, fmt.Errorf("%w: organization_id is required", ErrInvalidRequest)
	}

	f := model.CommunicationLogFilter{OrganizationID: &organizationID}
	if !from.IsZero() {
		f.From = &from
	}
	if !to.IsZero() {
		f.To = &to
	}

	statusCounts, err := s.auditRepo.CountByStatus(ctx, f)
	if err != nil {
		return nil, err
	}
	typeCounts, err := s.auditRepo.CountByType(ctx, f)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range statusCounts {
		total += n
	}

	return &model.DeliveryStatusSummary{
		OrganizationID:      organizationID,
		From:                from,
		To:                  to,
		TotalCommunications: total,
		StatusCounts:        statusCounts,
		TypeCounts:          typeCounts,
	}, nil
}

// CreateMessageAuditTrail lazily creates the audit trail for a message.
// Calling it twice for the same message returns the same trail.
func (s *AuditService) CreateMessageAuditTrail(ctx context.Context, messageID int64, ipAddress, userAgent string) (*model.MessageAuditTrail, error) {
	if messageID == 0 {
		return nil, fmt.Errorf("%w: message_id is required", ErrInvalidRequest)
	}
	return s.auditRepo.GetOrCreateAuditTrail(ctx, messageID, ipAddress, userAgent)
}

// authorizeMessageAccess resolves a message to its order's organization and
// applies the same staff-bypass policy as order history. Unknown messages are
// ErrLogNotFound for every caller.
func (s *AuditService) authorizeMessageAccess(ctx context.Context, messageID int64, principal model.Principal) error {
	log, err := s.auditRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLogNotFound
		}
		return err
	}
	if principal.IsStaff() {
		return nil
	}

	order, err := s.orderRepo.Get(ctx, log.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if principal.OrganizationID != order.OrganizationID {
		return ErrAccessDenied
	}
	return nil
}

// RecordMessageEdit appends one entry to a message's edit history, creating
// the audit trail first if this is the message's first audit event. The
// caller must belong to the organization that owns the message's order.
func (s *AuditService) RecordMessageEdit(ctx context.Context, messageID int64, principal model.Principal, previousContent, changeReason string) (*model.MessageEdit, error) {
	if messageID == 0 {
		return nil, fmt.Errorf("%w: message_id is required", ErrInvalidRequest)
	}
	if principal.UserID == 0 {
		return nil, fmt.Errorf("%w: edited_by is required", ErrInvalidRequest)
	}
	if err := s.authorizeMessageAccess(ctx, messageID, principal); err != nil {
		return nil, err
	}

	var created *model.MessageEdit
	err := s.auditRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		trail, err := s.auditRepo.GetOrCreateAuditTrail(ctx, messageID, "", "")
		if err != nil {
			return fmt.Errorf("ensure audit trail: %w", err)
		}

		edit := &model.MessageEdit{
			MessageAuditTrailID: trail.ID,
			EditedAt:            time.Now().UTC(),
			EditedBy:            principal.UserID,
			PreviousContent:     previousContent,
			ChangeReason:        changeReason,
		}
		created, err = s.auditRepo.CreateMessageEdit(ctx, edit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetMessageEditHistory returns a message's edits in chronological order,
// subject to the same organization scoping as every other read path.
func (s *AuditService) GetMessageEditHistory(ctx context.Context, messageID int64, principal model.Principal) ([]*model.MessageEdit, error) {
	if err := s.authorizeMessageAccess(ctx, messageID, principal); err != nil {
		return nil, err
	}
	return s.auditRepo.GetEditHistory(ctx, messageID)
}

// ValidateAuditAccess reports whether the caller may read data scoped to the
// given organization. Denial is a boolean, not an error; callers decide
// whether false becomes a 403.
func (s *AuditService) ValidateAuditAccess(principal model.Principal, organizationID int64) bool {
	if principal.IsStaff() {
		return true
	}
	return principal.OrganizationID == organizationID
}

func clampPageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
