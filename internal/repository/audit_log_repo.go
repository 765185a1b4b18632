package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Tanth170203/eduxtend-api/internal/models"
)

// AuditLogFilter narrows audit trail queries.
type AuditLogFilter struct {
	Page       int
	PageSize   int
	ActorID    *uint
	Action     string
	RecordType models.TargetType
	RecordID   *uint
}

// AuditLogRepository persists the evaluation audit trail. The trail is
// append-only: there is deliberately no update or delete operation.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.EvaluationAuditLog) error
	List(ctx context.Context, filter AuditLogFilter) ([]models.EvaluationAuditLog, int64, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository constructs the audit log repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.EvaluationAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]models.EvaluationAuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.EvaluationAuditLog{})

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	if filter.RecordType != "" {
		query = query.Where("record_type = ?", filter.RecordType)
	}

	if filter.RecordID != nil {
		query = query.Where("record_id = ?", *filter.RecordID)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var entries []models.EvaluationAuditLog
	if err := query.Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
