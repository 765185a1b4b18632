package dto

import (
	"time"

	"github.com/Tanth170203/eduxtend-api/internal/models"
)

// ClubMovementRecordResponse is the summary view of a monthly club record.
type ClubMovementRecordResponse struct {
	ID         uint      `json:"id"`
	ClubID     uint      `json:"club_id"`
	SemesterID uint      `json:"semester_id"`
	Month      int       `json:"month"`
	TotalScore float64   `json:"total_score"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ClubMovementRecordDetailResponse is the club record with its line breakdown.
type ClubMovementRecordDetailResponse struct {
	ClubMovementRecordResponse
	Details []ScoreLineResponse `json:"details"`
}

// NewClubScoreLineResponse converts a club line model into a DTO.
func NewClubScoreLineResponse(model models.ClubMovementRecordDetail) ScoreLineResponse {
	return ScoreLineResponse{
		ID:          model.ID,
		RecordID:    model.ClubMovementRecordID,
		CriterionID: model.CriterionID,
		Score:       model.Score,
		ScoreType:   string(model.ScoreType),
		ActivityID:  model.ActivityID,
		CreatedByID: model.CreatedByID,
		Note:        model.Note,
		AwardedAt:   model.AwardedAt,
	}
}

// NewClubMovementRecordResponse converts a club record model into a DTO.
func NewClubMovementRecordResponse(model models.ClubMovementRecord) ClubMovementRecordResponse {
	return ClubMovementRecordResponse{
		ID:         model.ID,
		ClubID:     model.ClubID,
		SemesterID: model.SemesterID,
		Month:      model.Month,
		TotalScore: model.TotalScore,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// NewClubMovementRecordResponseSlice converts a slice of club records.
func NewClubMovementRecordResponseSlice(records []models.ClubMovementRecord) []ClubMovementRecordResponse {
	responses := make([]ClubMovementRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewClubMovementRecordResponse(record))
	}

	return responses
}

// NewClubMovementRecordDetailResponse converts a club record and its lines.
func NewClubMovementRecordDetailResponse(model models.ClubMovementRecord) ClubMovementRecordDetailResponse {
	details := make([]ScoreLineResponse, 0, len(model.Details))
	for _, line := range model.Details {
		details = append(details, NewClubScoreLineResponse(line))
	}

	return ClubMovementRecordDetailResponse{
		ClubMovementRecordResponse: NewClubMovementRecordResponse(model),
		Details:                    details,
	}
}
