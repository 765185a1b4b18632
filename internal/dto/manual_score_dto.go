package dto

// ManualScoreCreateRequest is the admin payload for adding a manual line to a
// student record. The acting administrator is taken from the authenticated
// context, never from the body.
type ManualScoreCreateRequest struct {
	StudentID   uint    `json:"student_id" validate:"required"`
	SemesterID  uint    `json:"semester_id" validate:"required"`
	CriterionID uint    `json:"criterion_id" validate:"required"`
	Points      float64 `json:"points" validate:"required"`
	Note        string  `json:"note" validate:"required,min=3,max=512"`
}

// ClubManualScoreCreateRequest adds a manual line to a monthly club record.
type ClubManualScoreCreateRequest struct {
	ClubID      uint    `json:"club_id" validate:"required"`
	SemesterID  uint    `json:"semester_id" validate:"required"`
	Month       int     `json:"month" validate:"required,min=1,max=12"`
	CriterionID uint    `json:"criterion_id" validate:"required"`
	Points      float64 `json:"points" validate:"required"`
	Note        string  `json:"note" validate:"required,min=3,max=512"`
}

// ManualScoreUpdateRequest adjusts points and/or justification on an existing
// manual line. At least the note must always remain non-empty.
type ManualScoreUpdateRequest struct {
	Points *float64 `json:"points"`
	Note   *string  `json:"note" validate:"omitempty,min=3,max=512"`
}
