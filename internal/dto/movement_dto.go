package dto

import (
	"time"

	"github.com/Tanth170203/eduxtend-api/internal/models"
)

// AutoScoreRequest is the inbound trigger payload emitted by activity and
// attendance workflows when they award points to a student.
type AutoScoreRequest struct {
	StudentID   uint    `json:"student_id" validate:"required"`
	SemesterID  uint    `json:"semester_id" validate:"required"`
	CriterionID uint    `json:"criterion_id" validate:"required"`
	Points      float64 `json:"points" validate:"required"`
	ActivityID  uint    `json:"activity_id" validate:"required"`
	Note        string  `json:"note" validate:"max=512"`
}

// ClubAutoScoreRequest is the club-ledger counterpart of AutoScoreRequest.
type ClubAutoScoreRequest struct {
	ClubID      uint    `json:"club_id" validate:"required"`
	SemesterID  uint    `json:"semester_id" validate:"required"`
	Month       int     `json:"month" validate:"required,min=1,max=12"`
	CriterionID uint    `json:"criterion_id" validate:"required"`
	Points      float64 `json:"points" validate:"required"`
	ActivityID  uint    `json:"activity_id" validate:"required"`
	Note        string  `json:"note" validate:"max=512"`
}

// ScoreLineResponse is the serialized representation of a score line.
type ScoreLineResponse struct {
	ID          uint      `json:"id"`
	RecordID    uint      `json:"record_id"`
	CriterionID uint      `json:"criterion_id"`
	Score       float64   `json:"score"`
	ScoreType   string    `json:"score_type"`
	ActivityID  *uint     `json:"activity_id"`
	CreatedByID *uint     `json:"created_by_id"`
	Note        string    `json:"note"`
	AwardedAt   time.Time `json:"awarded_at"`
}

// MovementRecordResponse is the summary view of a student record.
type MovementRecordResponse struct {
	ID         uint      `json:"id"`
	StudentID  uint      `json:"student_id"`
	SemesterID uint      `json:"semester_id"`
	TotalScore float64   `json:"total_score"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MovementRecordDetailResponse is the record together with its line breakdown.
type MovementRecordDetailResponse struct {
	MovementRecordResponse
	Details []ScoreLineResponse `json:"details"`
}

// NewScoreLineResponse converts a student line model into a DTO.
func NewScoreLineResponse(model models.MovementRecordDetail) ScoreLineResponse {
	return ScoreLineResponse{
		ID:          model.ID,
		RecordID:    model.MovementRecordID,
		CriterionID: model.CriterionID,
		Score:       model.Score,
		ScoreType:   string(model.ScoreType),
		ActivityID:  model.ActivityID,
		CreatedByID: model.CreatedByID,
		Note:        model.Note,
		AwardedAt:   model.AwardedAt,
	}
}

// NewMovementRecordResponse converts a record model into a DTO.
func NewMovementRecordResponse(model models.MovementRecord) MovementRecordResponse {
	return MovementRecordResponse{
		ID:         model.ID,
		StudentID:  model.StudentID,
		SemesterID: model.SemesterID,
		TotalScore: model.TotalScore,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// NewMovementRecordResponseSlice converts a slice of records into DTOs.
func NewMovementRecordResponseSlice(records []models.MovementRecord) []MovementRecordResponse {
	responses := make([]MovementRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewMovementRecordResponse(record))
	}

	return responses
}

// NewMovementRecordDetailResponse converts a record and its preloaded lines.
func NewMovementRecordDetailResponse(model models.MovementRecord) MovementRecordDetailResponse {
	details := make([]ScoreLineResponse, 0, len(model.Details))
	for _, line := range model.Details {
		details = append(details, NewScoreLineResponse(line))
	}

	return MovementRecordDetailResponse{
		MovementRecordResponse: NewMovementRecordResponse(model),
		Details:                details,
	}
}
