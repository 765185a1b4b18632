package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Tanth170203/eduxtend-api/internal/models"
)

// CriterionFilter narrows criterion listings.
type CriterionFilter struct {
	GroupID    *uint
	TargetType models.TargetType
	ActiveOnly bool
}

// CriterionRepository defines persistence operations for scoring criteria.
type CriterionRepository interface {
	List(ctx context.Context, filter CriterionFilter) ([]models.Criterion, error)
	GetByID(ctx context.Context, id uint) (models.Criterion, error)
	Create(ctx context.Context, criterion *models.Criterion) error
	Update(ctx context.Context, criterion *models.Criterion) error
	Delete(ctx context.Context, id uint) error
	CountScoreLines(ctx context.Context, id uint) (int64, error)
}

type criterionRepository struct {
	db *gorm.DB
}

// NewCriterionRepository instantiates a GORM-backed repository.
func NewCriterionRepository(db *gorm.DB) CriterionRepository {
	return &criterionRepository{db: db}
}

func (r *criterionRepository) List(ctx context.Context, filter CriterionFilter) ([]models.Criterion, error) {
	query := r.db.WithContext(ctx).Model(&models.Criterion{})

	if filter.GroupID != nil {
		query = query.Where("group_id = ?", *filter.GroupID)
	}

	if filter.TargetType != "" {
		query = query.Joins("JOIN criterion_groups ON criterion_groups.id = criteria.group_id").
			Where("criterion_groups.target_type = ?", filter.TargetType)
	}

	if filter.ActiveOnly {
		query = query.Where("criteria.is_active = ?", true)
	}

	var criteria []models.Criterion
	if err := query.Order("criteria.display_order ASC, criteria.id ASC").Find(&criteria).Error; err != nil {
		return nil, err
	}

	return criteria, nil
}

func (r *criterionRepository) GetByID(ctx context.Context, id uint) (models.Criterion, error) {
	var criterion models.Criterion
	if err := r.db.WithContext(ctx).Preload("Group").First(&criterion, id).Error; err != nil {
		return models.Criterion{}, err
	}

	return criterion, nil
}

func (r *criterionRepository) Create(ctx context.Context, criterion *models.Criterion) error {
	return r.db.WithContext(ctx).Create(criterion).Error
}

func (r *criterionRepository) Update(ctx context.Context, criterion *models.Criterion) error {
	return r.db.WithContext(ctx).Save(criterion).Error
}

func (r *criterionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Criterion{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountScoreLines counts references from both ledgers. A criterion with any
// reference must never be deleted.
func (r *criterionRepository) CountScoreLines(ctx context.Context, id uint) (int64, error) {
	var studentLines int64
	if err := r.db.WithContext(ctx).Model(&models.MovementRecordDetail{}).
		Where("criterion_id = ?", id).Count(&studentLines).Error; err != nil {
		return 0, err
	}

	var clubLines int64
	if err := r.db.WithContext(ctx).Model(&models.ClubMovementRecordDetail{}).
		Where("criterion_id = ?", id).Count(&clubLines).Error; err != nil {
		return 0, err
	}

	return studentLines + clubLines, nil
}
