package models

import "time"

// ClubMovementRecord aggregates a club's movement score for one month of a
// semester. At most one record exists per (club, semester, month).
type ClubMovementRecord struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	ClubID     uint    `gorm:"not null;uniqueIndex:idx_club_movement_records_club_semester_month" json:"club_id"`
	SemesterID uint    `gorm:"not null;uniqueIndex:idx_club_movement_records_club_semester_month" json:"semester_id"`
	Month      int     `gorm:"not null;uniqueIndex:idx_club_movement_records_club_semester_month;check:month >= 1 AND month <= 12" json:"month"`
	TotalScore float64 `gorm:"not null;default:0" json:"total_score"`
	Club       Club     `json:"-"`
	Semester   Semester `json:"-"`
	Details    []ClubMovementRecordDetail `gorm:"foreignKey:ClubMovementRecordID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ClubMovementRecordDetail is a single awarded score line on a club record.
// As on the student ledger, automatic lines are unique per
// (record, criterion, activity) through a partial unique index.
type ClubMovementRecordDetail struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	ClubMovementRecordID uint      `gorm:"not null;index:idx_club_movement_details_record_criterion;uniqueIndex:idx_club_movement_details_source" json:"club_movement_record_id"`
	CriterionID          uint      `gorm:"not null;index:idx_club_movement_details_record_criterion;uniqueIndex:idx_club_movement_details_source" json:"criterion_id"`
	Criterion            Criterion `json:"-"`
	Score                float64   `gorm:"not null" json:"score"`
	ScoreType            ScoreType `gorm:"size:16;not null" json:"score_type"`
	ActivityID           *uint     `gorm:"index;uniqueIndex:idx_club_movement_details_source,where:activity_id IS NOT NULL" json:"activity_id"`
	CreatedByID          *uint     `json:"created_by_id"`
	Note                 string    `gorm:"size:512" json:"note"`
	AwardedAt            time.Time `gorm:"not null" json:"awarded_at"`
	CreatedAt            time.Time `json:"created_at"`
}

// IsManual reports whether the line was entered by an administrator.
func (d ClubMovementRecordDetail) IsManual() bool {
	return d.ScoreType == ScoreTypeManual
}
