package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tanth170203/eduxtend-api/internal/models"
)

// CapGuard vetoes a line insert based on the in-transaction sum of the
// existing lines for the new line's (record, criterion) pair. AddLine calls
// it after serializing on the parent record row, so concurrent awards see
// each other's scores.
type CapGuard func(accumulated float64) error

// MovementRecordRepository defines persistence operations for the student
// score ledger. Every line mutation recomputes the parent record's cached
// total inside the same transaction, so readers never observe a line without
// its reflected total.
type MovementRecordRepository interface {
	GetOrCreate(ctx context.Context, studentID, semesterID uint) (models.MovementRecord, error)
	GetByID(ctx context.Context, id uint) (models.MovementRecord, error)
	GetDetailed(ctx context.Context, id uint) (models.MovementRecord, error)
	FindByStudentSemester(ctx context.Context, studentID, semesterID uint) (models.MovementRecord, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.MovementRecord, error)
	ListBySemester(ctx context.Context, semesterID uint, page, pageSize int) ([]models.MovementRecord, int64, error)
	TopBySemester(ctx context.Context, semesterID uint, limit int) ([]models.MovementRecord, error)
	Delete(ctx context.Context, id uint) error

	GetLine(ctx context.Context, lineID uint) (models.MovementRecordDetail, error)
	FindLineBySource(ctx context.Context, recordID, criterionID, activityID uint) (models.MovementRecordDetail, error)
	SumForCriterion(ctx context.Context, recordID, criterionID uint) (float64, error)
	AddLine(ctx context.Context, line *models.MovementRecordDetail, audit *models.EvaluationAuditLog, guard CapGuard) (float64, error)
	UpdateLine(ctx context.Context, line *models.MovementRecordDetail, audit *models.EvaluationAuditLog) (float64, error)
	DeleteLine(ctx context.Context, lineID uint, audit *models.EvaluationAuditLog) (float64, error)
	RecomputeTotal(ctx context.Context, recordID uint) (float64, error)
}

type movementRecordRepository struct {
	db *gorm.DB
}

// NewMovementRecordRepository instantiates a GORM-backed repository.
func NewMovementRecordRepository(db *gorm.DB) MovementRecordRepository {
	return &movementRecordRepository{db: db}
}

// GetOrCreate is the only path that instantiates a record. The insert relies
// on the (student_id, semester_id) unique index: under a concurrent first
// award the loser's insert is skipped and both callers read back the single
// surviving row.
func (r *movementRecordRepository) GetOrCreate(ctx context.Context, studentID, semesterID uint) (models.MovementRecord, error) {
	record := models.MovementRecord{StudentID: studentID, SemesterID: semesterID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error; err != nil {
		return models.MovementRecord{}, err
	}

	return r.FindByStudentSemester(ctx, studentID, semesterID)
}

func (r *movementRecordRepository) GetByID(ctx context.Context, id uint) (models.MovementRecord, error) {
	var record models.MovementRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return models.MovementRecord{}, err
	}

	return record, nil
}

func (r *movementRecordRepository) GetDetailed(ctx context.Context, id uint) (models.MovementRecord, error) {
	var record models.MovementRecord
	err := r.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("awarded_at ASC, id ASC")
		}).
		First(&record, id).Error
	if err != nil {
		return models.MovementRecord{}, err
	}

	return record, nil
}

func (r *movementRecordRepository) FindByStudentSemester(ctx context.Context, studentID, semesterID uint) (models.MovementRecord, error) {
	var record models.MovementRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND semester_id = ?", studentID, semesterID).
		First(&record).Error
	if err != nil {
		return models.MovementRecord{}, err
	}

	return record, nil
}

func (r *movementRecordRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.MovementRecord, error) {
	var records []models.MovementRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("semester_id DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *movementRecordRepository) ListBySemester(ctx context.Context, semesterID uint, page, pageSize int) ([]models.MovementRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MovementRecord{}).
		Where("semester_id = ?", semesterID)

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

	var records []models.MovementRecord
	if err := query.Order("total_score DESC, id ASC").Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *movementRecordRepository) TopBySemester(ctx context.Context, semesterID uint, limit int) ([]models.MovementRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	var records []models.MovementRecord
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("semester_id = ?", semesterID).
		Order("total_score DESC, id ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Delete removes the record and all of its lines.
func (r *movementRecordRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("movement_record_id = ?", id).
			Delete(&models.MovementRecordDetail{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.MovementRecord{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *movementRecordRepository) GetLine(ctx context.Context, lineID uint) (models.MovementRecordDetail, error) {
	var line models.MovementRecordDetail
	if err := r.db.WithContext(ctx).First(&line, lineID).Error; err != nil {
		return models.MovementRecordDetail{}, err
	}

	return line, nil
}

func (r *movementRecordRepository) FindLineBySource(ctx context.Context, recordID, criterionID, activityID uint) (models.MovementRecordDetail, error) {
	var line models.MovementRecordDetail
	err := r.db.WithContext(ctx).
		Where("movement_record_id = ? AND criterion_id = ? AND activity_id = ?", recordID, criterionID, activityID).
		First(&line).Error
	if err != nil {
		return models.MovementRecordDetail{}, err
	}

	return line, nil
}

func (r *movementRecordRepository) SumForCriterion(ctx context.Context, recordID, criterionID uint) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).Model(&models.MovementRecordDetail{}).
		Where("movement_record_id = ? AND criterion_id = ?", recordID, criterionID).
		Select("COALESCE(SUM(score), 0)").
		Scan(&sum).Error
	return sum, err
}

// AddLine inserts the line, refreshes the cached total and, when an audit
// entry is supplied, appends it, all in one transaction. The parent record
// row is updated first so concurrent line writes on the same record serialize
// and the guard sees a stable per-criterion sum. A duplicate
// (record, criterion, activity) source surfaces as gorm.ErrDuplicatedKey via
// the partial unique index on automatic lines.
func (r *movementRecordRepository) AddLine(ctx context.Context, line *models.MovementRecordDetail, audit *models.EvaluationAuditLog, guard CapGuard) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		touch := tx.Model(&models.MovementRecord{}).
			Where("id = ?", line.MovementRecordID).
			Update("updated_at", time.Now())
		if touch.Error != nil {
			return touch.Error
		}
		if touch.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if guard != nil {
			var accumulated float64
			if err := tx.Model(&models.MovementRecordDetail{}).
				Where("movement_record_id = ? AND criterion_id = ?", line.MovementRecordID, line.CriterionID).
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
		return r.applyTotalAndAudit(tx, line.MovementRecordID, audit, &total)
	})

	return total, err
}

func (r *movementRecordRepository) UpdateLine(ctx context.Context, line *models.MovementRecordDetail, audit *models.EvaluationAuditLog) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(line).Error; err != nil {
			return err
		}
		return r.applyTotalAndAudit(tx, line.MovementRecordID, audit, &total)
	})

	return total, err
}

func (r *movementRecordRepository) DeleteLine(ctx context.Context, lineID uint, audit *models.EvaluationAuditLog) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var line models.MovementRecordDetail
		if err := tx.First(&line, lineID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.MovementRecordDetail{}, lineID).Error; err != nil {
			return err
		}
		return r.applyTotalAndAudit(tx, line.MovementRecordID, audit, &total)
	})

	return total, err
}

// RecomputeTotal re-derives the cached total from the current lines. Used to
// repair a total that was observed out of sync with its line sum.
func (r *movementRecordRepository) RecomputeTotal(ctx context.Context, recordID uint) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.applyTotalAndAudit(tx, recordID, nil, &total)
	})

	return total, err
}

func (r *movementRecordRepository) applyTotalAndAudit(tx *gorm.DB, recordID uint, audit *models.EvaluationAuditLog, total *float64) error {
	if err := tx.Model(&models.MovementRecordDetail{}).
		Where("movement_record_id = ?", recordID).
		Select("COALESCE(SUM(score), 0)").
		Scan(total).Error; err != nil {
		return err
	}

	if err := tx.Model(&models.MovementRecord{}).
		Where("id = ?", recordID).
		Update("total_score", *total).Error; err != nil {
		return err
	}

	if audit != nil {
		audit.RecordType = models.TargetStudent
		audit.RecordID = recordID
		if err := tx.Create(audit).Error; err != nil {
			return err
		}
	}

	return nil
}
