package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/andrewPaul004/ColorGarbApp-sub004/internal/model"
	"github.com/andrewPaul004/ColorGarbApp-sub004/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
)

// likeEscaper neutralizes LIKE metacharacters in user search terms so a
// literal "100%" does not match "1000".
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// allowed sort columns for Search; anything else falls back to sent_at.
var sortColumns = map[string]string{
	"sent_at":            "communication_logs.sent_at",
	"created_at":         "communication_logs.created_at",
	"delivery_status":    "communication_logs.delivery_status",
	"communication_type": "communication_logs.communication_type",
}

type CommunicationAuditRepository struct {
	*pg.DB
}

func NewCommunicationAuditRepository(db *pg.DB) *CommunicationAuditRepository {
	return &CommunicationAuditRepository{
		db,
	}
}

func (r *CommunicationAuditRepository) Create(ctx context.Context, log *model.CommunicationLog) (*model.CommunicationLog, error) {
	entity := toCommunicationLogEntity(log)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toCommunicationLogModel(entity), nil
}

func (r *CommunicationAuditRepository) Update(ctx context.Context, log *model.CommunicationLog) error {
	entity := toCommunicationLogEntity(log)
	return r.Write(ctx).WithContext(ctx).Save(entity).Error
}

// Search returns one page of matching logs plus the total match count. The
// count is computed on the filtered query before pagination so counts and
// result sets always agree for the same predicates.
func (r *CommunicationAuditRepository) Search(ctx context.Context, f model.CommunicationLogFilter) ([]*model.CommunicationLog, int64, error) {
	q := r.applyFilter(r.Read(ctx).WithContext(ctx).Model(&CommunicationLogEntity{}), f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := sortColumns["sent_at"]
	if col, ok := sortColumns[f.SortBy]; ok {
		order = col
	}
	if f.Asc {
		order += " ASC"
	} else {
		order += " DESC"
	}

	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	q = q.Order(order).Offset(offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var entities []*CommunicationLogEntity
	if err := q.Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toCommunicationLogModels(entities), total, nil
}

// Count applies the same predicate set as Search but transfers no rows.
func (r *CommunicationAuditRepository) Count(ctx context.Context, f model.CommunicationLogFilter) (int64, error) {
	q := r.applyFilter(r.Read(ctx).WithContext(ctx).Model(&CommunicationLogEntity{}), f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *CommunicationAuditRepository) applyFilter(q *gorm.DB, f model.CommunicationLogFilter) *gorm.DB {
	if f.OrganizationID != nil {
		q = q.Joins("JOIN orders ON orders.id = communication_logs.order_id").
			Where("orders.organization_id = ?", *f.OrganizationID)
	}
	if f.OrderID != nil {
		q = q.Where("communication_logs.order_id = ?", *f.OrderID)
	}
	if len(f.Types) > 0 {
		q = q.Where("communication_logs.communication_type IN ?", f.Types)
	}
	if f.SenderID != nil {
		q = q.Where("communication_logs.sender_id = ?", *f.SenderID)
	}
	if f.RecipientID != nil {
		q = q.Where("communication_logs.recipient_id = ?", *f.RecipientID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("communication_logs.delivery_status IN ?", f.Statuses)
	}
	if f.From != nil {
		q = q.Where("communication_logs.sent_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("communication_logs.sent_at < ?", *f.To)
	}
	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		q = q.Where(`LOWER(communication_logs.subject) LIKE ? ESCAPE '\' OR LOWER(communication_logs.content) LIKE ? ESCAPE '\'`, pattern, pattern)
	}
	return q
}

// GetByID fetches one communication log by primary key.
func (r *CommunicationAuditRepository) GetByID(ctx context.Context, id int64) (*model.CommunicationLog, error) {
	var entity CommunicationLogEntity
	err := r.Read(ctx).WithContext(ctx).
		First(&entity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toCommunicationLogModel(&entity), nil
}

// GetByExternalID correlates an inbound provider webhook to the log row
// whose delivery status must be updated.
func (r *CommunicationAuditRepository) GetByExternalID(ctx context.Context, externalID string) (*model.CommunicationLog, error) {
	var entity CommunicationLogEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("external_message_id = ?", externalID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toCommunicationLogModel(&entity), nil
}

// GetOrderHistory returns all communications for one order, newest first.
func (r *CommunicationAuditRepository) GetOrderHistory(ctx context.Context, orderID int64) ([]*model.CommunicationLog, error) {
	var entities []*CommunicationLogEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("sent_at DESC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toCommunicationLogModels(entities), nil
}

func (r *CommunicationAuditRepository) CreateDeliveryLog(ctx context.Context, dl *model.NotificationDeliveryLog) (*model.NotificationDeliveryLog, error) {
	entity := toDeliveryLogEntity(dl)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toDeliveryLogModel(entity), nil
}

// GetDeliveryLogs returns the provider status transitions recorded for one
// communication log, in the order they were received.
func (r *CommunicationAuditRepository) GetDeliveryLogs(ctx context.Context, communicationLogID int64) ([]*model.NotificationDeliveryLog, error) {
	var entities []*NotificationDeliveryLogEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("communication_log_id = ?", communicationLogID).
		Order("id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toDeliveryLogModels(entities), nil
}

type groupCount struct {
	Key   string `gorm:"column:key"`
	Count int64  `gorm:"column:count"`
}

// CountByStatus groups the filtered match set by delivery status.
func (r *CommunicationAuditRepository) CountByStatus(ctx context.Context, f model.CommunicationLogFilter) (map[model.DeliveryStatus]int64, error) {
	q := r.applyFilter(r.Read(ctx).WithContext(ctx).Model(&CommunicationLogEntity{}), f)

	var rows []groupCount
	err := q.Select("communication_logs.delivery_status AS key, COUNT(*) AS count").
		Group("communication_logs.delivery_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.DeliveryStatus]int64, len(rows))
	for _, row := range rows {
		counts[model.DeliveryStatus(row.Key)] = row.Count
	}
	return counts, nil
}

// CountByType groups the filtered match set by communication type.
func (r *CommunicationAuditRepository) CountByType(ctx context.Context, f model.CommunicationLogFilter) (map[model.CommunicationType]int64, error) {
	q := r.applyFilter(r.Read(ctx).WithContext(ctx).Model(&CommunicationLogEntity{}), f)

	var rows []groupCount
	err := q.Select("communication_logs.communication_type AS key, COUNT(*) AS count").
		Group("communication_logs.communication_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.CommunicationType]int64, len(rows))
	for _, row := range rows {
		counts[model.CommunicationType(row.Key)] = row.Count
	}
	return counts, nil
}

// GetOrCreateAuditTrail returns the existing trail for a message or creates
// one. Creation is idempotent: calling twice for the same message returns the
// same trail id and leaves exactly one row.
func (r *CommunicationAuditRepository) GetOrCreateAuditTrail(ctx context.Context, messageID int64, ipAddress, userAgent string) (*model.MessageAuditTrail, error) {
	var entity MessageAuditTrailEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("message_id = ?", messageID).
		First(&entity).Error
	if err == nil {
		return toAuditTrailModel(&entity), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	entity = MessageAuditTrailEntity{
		MessageID: messageID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if err := r.Write(ctx).WithContext(ctx).Create(&entity).Error; err != nil {
		// Lost a create race on the unique message_id index; read the winner.
		var existing MessageAuditTrailEntity
		if readErr := r.Read(ctx).WithContext(ctx).Where("message_id = ?", messageID).First(&existing).Error; readErr == nil {
			return toAuditTrailModel(&existing), nil
		}
		return nil, err
	}
	return toAuditTrailModel(&entity), nil
}

func (r *CommunicationAuditRepository) CreateMessageEdit(ctx context.Context, edit *model.MessageEdit) (*model.MessageEdit, error) {
	entity := &MessageEditEntity{
		MessageAuditTrailID: edit.MessageAuditTrailID,
		EditedAt:            edit.EditedAt,
		EditedBy:            edit.EditedBy,
		PreviousContent:     edit.PreviousContent,
		ChangeReason:        edit.ChangeReason,
	}

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	created := *edit
	created.ID = entity.ID
	return &created, nil
}

// GetEditHistory returns a message's edits ascending by edited_at with the
// editor's name joined in, so chronology can be reconstructed.
func (r *CommunicationAuditRepository) GetEditHistory(ctx context.Context, messageID int64) ([]*model.MessageEdit, error) {
	var rows []*messageEditRow
	err := r.Read(ctx).WithContext(ctx).
		Table("message_edits").
		Select(`
            message_edits.id                     AS id,
            message_edits.message_audit_trail_id AS message_audit_trail_id,
            message_edits.edited_at              AS edited_at,
            message_edits.edited_by              AS edited_by,
            COALESCE(users.name, '')             AS editor_name,
            message_edits.previous_content       AS previous_content,
            message_edits.change_reason          AS change_reason
        `).
		Joins("JOIN message_audit_trails ON message_audit_trails.id = message_edits.message_audit_trail_id").
		Joins("LEFT JOIN users ON users.id = message_edits.edited_by").
		Where("message_audit_trails.message_id = ?", messageID).
		Order("message_edits.edited_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	edits := make([]*model.MessageEdit, len(rows))
	for i, row := range rows {
		edits[i] = toMessageEditModel(row)
	}
	return edits, nil
}
