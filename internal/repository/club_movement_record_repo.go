package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tanth170203/eduxtend-api/internal/models"
)

// ClubMovementRecordRepository is the club-ledger counterpart of
// MovementRecordRepository. Records are scoped by (club, semester, month).
type ClubMovementRecordRepository interface {
	GetOrCreate(ctx context.Context, clubID, semesterID uint, month int) (models.ClubMovementRecord, error)
	GetByID(ctx context.Context, id uint) (models.ClubMovementRecord, error)
	GetDetailed(ctx context.Context, id uint) (models.ClubMovementRecord, error)
	FindByClubSemesterMonth(ctx context.Context, clubID, semesterID uint, month int) (models.ClubMovementRecord, error)
	ListByClub(ctx context.Context, clubID uint) ([]models.ClubMovementRecord, error)
	ListBySemester(ctx context.Context, semesterID uint, month int, page, pageSize int) ([]models.ClubMovementRecord, int64, error)
	TopBySemesterMonth(ctx context.Context, semesterID uint, month, limit int) ([]models.ClubMovementRecord, error)
	Delete(ctx context.Context, id uint) error

	GetLine(ctx context.Context, lineID uint) (models.ClubMovementRecordDetail, error)
	FindLineBySource(ctx context.Context, recordID, criterionID, activityID uint) (models.ClubMovementRecordDetail, error)
	SumForCriterion(ctx context.Context, recordID, criterionID uint) (float64, error)
	AddLine(ctx context.Context, line *models.ClubMovementRecordDetail, audit *models.EvaluationAuditLog, guard CapGuard) (float64, error)
	UpdateLine(ctx context.Context, line *models.ClubMovementRecordDetail, audit *models.EvaluationAuditLog) (float64, error)
	DeleteLine(ctx context.Context, lineID uint, audit *models.EvaluationAuditLog) (float64, error)
	RecomputeTotal(ctx context.Context, recordID uint) (float64, error)
}

type clubMovementRecordRepository struct {
	db *gorm.DB
}

// NewClubMovementRecordRepository instantiates a GORM-backed repository.
func NewClubMovementRecordRepository(db *gorm.DB) ClubMovementRecordRepository {
	return &clubMovementRecordRepository{db: db}
}

// GetOrCreate relies on the (club_id, semester_id, month) unique index to stay
// race-safe under concurrent first awards for the same key.
func (r *clubMovementRecordRepository) GetOrCreate(ctx context.Context, clubID, semesterID uint, month int) (models.ClubMovementRecord, error) {
	record := models.ClubMovementRecord{ClubID: clubID, SemesterID: semesterID, Month: month}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error; err != nil {
		return models.ClubMovementRecord{}, err
	}

	return r.FindByClubSemesterMonth(ctx, clubID, semesterID, month)
}

func (r *clubMovementRecordRepository) GetByID(ctx context.Context, id uint) (models.ClubMovementRecord, error) {
	var record models.ClubMovementRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return models.ClubMovementRecord{}, err
	}

	return record, nil
}

func (r *clubMovementRecordRepository) GetDetailed(ctx context.Context, id uint) (models.ClubMovementRecord, error) {
	var record models.ClubMovementRecord
	err := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("awarded_at ASC, id ASC")
		}).
		First(&record, id).Error
	if err != nil {
		return models.ClubMovementRecord{}, err
	}

	return record, nil
}

func (r *clubMovementRecordRepository) FindByClubSemesterMonth(ctx context.Context, clubID, semesterID uint, month int) (models.ClubMovementRecord, error) {
	var record models.ClubMovementRecord
	err := r.db.WithContext(ctx).
		Where("club_id = ? AND semester_id = ? AND month = ?", clubID, semesterID, month).
		First(&record).Error
	if err != nil {
		return models.ClubMovementRecord{}, err
	}

	return record, nil
}

func (r *clubMovementRecordRepository) ListByClub(ctx context.Context, clubID uint) ([]models.ClubMovementRecord, error) {
	var records []models.ClubMovementRecord
	err := r.db.WithContext(ctx).
		Where("club_id = ?", clubID).
		Order("semester_id DESC, month DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *clubMovementRecordRepository) ListBySemester(ctx context.Context, semesterID uint, month int, page, pageSize int) ([]models.ClubMovementRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ClubMovementRecord{}).
		Where("semester_id = ?", semesterID)

	if month > 0 {
		query = query.Where("month = ?", month)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pageSize > 0 {
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var records []models.ClubMovementRecord
	if err := query.Order("total_score DESC, id ASC").Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *clubMovementRecordRepository) TopBySemesterMonth(ctx context.Context, semesterID uint, month, limit int) ([]models.ClubMovementRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := r.db.WithContext(ctx).
		Preload("Club").
		Where("semester_id = ?", semesterID)
	if month > 0 {
		query = query.Where("month = ?", month)
	}

	var records []models.ClubMovementRecord
	err := query.Order("total_score DESC, id ASC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *clubMovementRecordRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("club_movement_record_id = ?", id).
			Delete(&models.ClubMovementRecordDetail{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.ClubMovementRecord{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *clubMovementRecordRepository) GetLine(ctx context.Context, lineID uint) (models.ClubMovementRecordDetail, error) {
	var line models.ClubMovementRecordDetail
	if err := r.db.WithContext(ctx).First(&line, lineID).Error; err != nil {
		return models.ClubMovementRecordDetail{}, err
	}

	return line, nil
}

func (r *clubMovementRecordRepository) FindLineBySource(ctx context.Context, recordID, criterionID, activityID uint) (models.ClubMovementRecordDetail, error) {
	var line models.ClubMovementRecordDetail
	err := r.db.WithContext(ctx).
		Where("club_movement_record_id = ? AND criterion_id = ? AND activity_id = ?", recordID, criterionID, activityID).
		First(&line).Error
	if err != nil {
		return models.ClubMovementRecordDetail{}, err
	}

	return line, nil
}

func (r *clubMovementRecordRepository) SumForCriterion(ctx context.Context, recordID, criterionID uint) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.ClubMovementRecordDetail{}).
		Where("club_movement_record_id = ? AND criterion_id = ?", recordID, criterionID).
		Select("COALESCE(SUM(score), 0)").
		Scan(&sum).Error
	return sum, err
}

// AddLine mirrors the student ledger: serialize on the parent record row,
// run the cap guard against the in-transaction sum, then insert. Duplicate
// automatic sources surface as gorm.ErrDuplicatedKey.
func (r *clubMovementRecordRepository) AddLine(ctx context.Context, line *models.ClubMovementRecordDetail, audit *models.EvaluationAuditLog, guard CapGuard) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		touch := tx.Model(&models.ClubMovementRecord{}).
			Where("id = ?", line.ClubMovementRecordID).
			Update("updated_at", time.Now())
		if touch.Error != nil {
			return touch.Error
		}
		if touch.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if guard != nil {
			var accumulated float64
			if err := tx.Model(&models.ClubMovementRecordDetail{}).
				Where("club_movement_record_id = ? AND criterion_id = ?", line.ClubMovementRecordID, line.CriterionID).
				Select("COALESCE(SUM(score), 0)").
				Scan(&accumulated).Error; err != nil {
				return err
			}
			if err := guard(accumulated); err != nil {
				return err
			}
		}

		if err := tx.Create(line).Error; err != nil {
			return err
		}
		if audit != nil && audit.NewValue != nil {
			audit.NewValue["line_id"] = line.ID
		}
		return r.applyTotalAndAudit(tx, line.ClubMovementRecordID, audit, &total)
	})

	return total, err
}

func (r *clubMovementRecordRepository) UpdateLine(ctx context.Context, line *models.ClubMovementRecordDetail, audit *models.EvaluationAuditLog) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(line).Error; err != nil {
			return err
		}
		return r.applyTotalAndAudit(tx, line.ClubMovementRecordID, audit, &total)
	})

	return total, err
}

func (r *clubMovementRecordRepository) DeleteLine(ctx context.Context, lineID uint, audit *models.EvaluationAuditLog) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var line models.ClubMovementRecordDetail
		if err := tx.First(&line, lineID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.ClubMovementRecordDetail{}, lineID).Error; err != nil {
			return err
		}
		return r.applyTotalAndAudit(tx, line.ClubMovementRecordID, audit, &total)
	})

	return total, err
}

func (r *clubMovementRecordRepository) RecomputeTotal(ctx context.Context, recordID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.applyTotalAndAudit(tx, recordID, nil, &total)
	})

	return total, err
}

func (r *clubMovementRecordRepository) applyTotalAndAudit(tx *gorm.DB, recordID uint, audit *models.EvaluationAuditLog, total *float64) error {
	if err := tx.Model(&models.ClubMovementRecordDetail{}).
		Where("club_movement_record_id = ?", recordID).
		Select("COALESCE(SUM(score), 0)").
		Scan(total).Error; err != nil {
		return err
	}

	if err := tx.Model(&models.ClubMovementRecord{}).
		Where("id = ?", recordID).
		Update("total_score", *total).Error; err != nil {
		return err
	}

	if audit != nil {
		audit.RecordType = models.TargetClub
		audit.RecordID = recordID
		if err := tx.Create(audit).Error; err != nil {
			return err
		}
	}

	return nil
}
