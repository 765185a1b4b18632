package models

import "time"

// ScoreType distinguishes system-derived lines from admin-entered ones. The
// type is fixed at line creation and never changes afterwards.
type ScoreType string

const (
	// ScoreTypeAuto marks lines emitted by activity/attendance triggers.
	ScoreTypeAuto ScoreType = "auto"
	// ScoreTypeManual marks lines entered by an administrator.
	ScoreTypeManual ScoreType = "manual"
)

// MovementRecord aggregates a student's movement score for one semester.
// At most one record exists per (student, semester); TotalScore is always the
// sum of the attached detail lines and is updated in the same transaction as
// any line mutation.
type MovementRecord struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	StudentID  uint    `gorm:"not null;uniqueIndex:idx_movement_records_student_semester" json:"student_id"`
	SemesterID uint    `gorm:"not null;uniqueIndex:idx_movement_records_student_semester" json:"semester_id"`
	TotalScore float64 `gorm:"not null;default:0" json:"total_score"`
	Student    Student  `json:"-"`
	Semester   Semester `json:"-"`
	Details    []MovementRecordDetail `gorm:"foreignKey:MovementRecordID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MovementRecordDetail is a single awarded score line. Multiple lines per
// (record, criterion) are allowed so scores accumulate, but at most one
// automatic line may exist per (record, criterion, activity): the partial
// unique index on sourced lines backs idempotent activity replays. Manual
// lines carry no activity and are not constrained by it.
type MovementRecordDetail struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	MovementRecordID uint      `gorm:"not null;index:idx_movement_details_record_criterion;uniqueIndex:idx_movement_details_source" json:"movement_record_id"`
	CriterionID      uint      `gorm:"not null;index:idx_movement_details_record_criterion;uniqueIndex:idx_movement_details_source" json:"criterion_id"`
	Criterion        Criterion `json:"-"`
	Score            float64   `gorm:"not null" json:"score"`
	ScoreType        ScoreType `gorm:"size:16;not null" json:"score_type"`
	ActivityID       *uint     `gorm:"index;uniqueIndex:idx_movement_details_source,where:activity_id IS NOT NULL" json:"activity_id"`
	CreatedByID      *uint     `json:"created_by_id"`
	Note             string    `gorm:"size:512" json:"note"`
	AwardedAt        time.Time `gorm:"not null" json:"awarded_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// IsManual reports whether the line was entered by an administrator.
func (d MovementRecordDetail) IsManual() bool {
	return d.ScoreType == ScoreTypeManual
}
