package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Tanth170203/eduxtend-api/internal/models"
)

// CriterionGroupRepository defines persistence operations for criterion groups.
type CriterionGroupRepository interface {
	List(ctx context.Context, targetType models.TargetType) ([]models.CriterionGroup, error)
	GetByID(ctx context.Context, id uint) (models.CriterionGroup, error)
	Create(ctx context.Context, group *models.CriterionGroup) error
	Update(ctx context.Context, group *models.CriterionGroup) error
	Delete(ctx context.Context, id uint) error
	CountCriteria(ctx context.Context, id uint) (int64, error)
}

type criterionGroupRepository struct {
	db *gorm.DB
}

// NewCriterionGroupRepository constructs the group repository.
func NewCriterionGroupRepository(db *gorm.DB) CriterionGroupRepository {
	return &criterionGroupRepository{db: db}
}

func (r *criterionGroupRepository) List(ctx context.Context, targetType models.TargetType) ([]models.CriterionGroup, error) {
	query := r.db.WithContext(ctx).Preload("Criteria", func(db *gorm.DB) *gorm.DB {
		return db.Order("display_order ASC, id ASC")
	})

	if targetType != "" {
		query = query.Where("target_type = ?", targetType)
	}

	var groups []models.CriterionGroup
	if err := query.Order("display_order ASC, id ASC").Find(&groups).Error; err != nil {
		return nil, err
	}

	return groups, nil
}

func (r *criterionGroupRepository) GetByID(ctx context.Context, id uint) (models.CriterionGroup, error) {
	var group models.CriterionGroup
	if err := r.db.WithContext(ctx).Preload("Criteria").First(&group, id).Error; err != nil {
		return models.CriterionGroup{}, err
	}

	return group, nil
}

func (r *criterionGroupRepository) Create(ctx context.Context, group *models.CriterionGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *criterionGroupRepository) Update(ctx context.Context, group *models.CriterionGroup) error {
	return r.db.WithContext(ctx).Save(group).Error
}

func (r *criterionGroupRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.CriterionGroup{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *criterionGroupRepository) CountCriteria(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Criterion{}).
		Where("group_id = ?", id).Count(&count).Error
	return count, err
}
