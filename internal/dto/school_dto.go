package dto

import (
	"time"

	"github.com/Tanth170203/eduxtend-api/internal/models"
)

// SemesterResponse is the serialized evaluation period.
type SemesterResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	SchoolYear string    `json:"school_year"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	IsActive   bool      `json:"is_active"`
}

// StudentResponse is the serialized student reference.
type StudentResponse struct {
	ID       uint   `json:"id"`
	Code     string `json:"code"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// ClubResponse is the serialized club reference.
type ClubResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	IsActive  bool   `json:"is_active"`
}

// NewSemesterResponse converts a model into a DTO.
func NewSemesterResponse(model models.Semester) SemesterResponse {
	return SemesterResponse{
		ID:         model.ID,
		Name:       model.Name,
		SchoolYear: model.SchoolYear,
		StartDate:  model.StartDate,
		EndDate:    model.EndDate,
		IsActive:   model.IsActive,
	}
}

// NewSemesterResponseSlice converts a slice of models into DTOs.
func NewSemesterResponseSlice(semesters []models.Semester) []SemesterResponse {
	responses := make([]SemesterResponse, 0, len(semesters))
	for _, semester := range semesters {
		responses = append(responses, NewSemesterResponse(semester))
	}

	return responses
}

// NewStudentResponse converts a model into a DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	return StudentResponse{
		ID:       model.ID,
		Code:     model.Code,
		FullName: model.FullName,
		Email:    model.Email,
	}
}

// NewClubResponse converts a model into a DTO.
func NewClubResponse(model models.Club) ClubResponse {
	return ClubResponse{
		ID:        model.ID,
		Name:      model.Name,
		ShortName: model.ShortName,
		IsActive:  model.IsActive,
	}
}
