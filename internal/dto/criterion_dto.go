package dto

import (
	"time"

	"github.com/Tanth170203/eduxtend-api/internal/models"
)

// CriterionGroupCreateRequest describes the payload for creating a group.
type CriterionGroupCreateRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=255"`
	TargetType   string `json:"target_type" validate:"required,oneof=student club"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

// CriterionGroupUpdateRequest describes the payload for updating group metadata.
type CriterionGroupUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=2,max=255"`
	DisplayOrder *int    `json:"display_order" validate:"omitempty,gte=0"`
}

// CriterionCreateRequest describes the payload for creating a criterion.
// MaxPoints may be omitted for uncapped accumulation.
type CriterionCreateRequest struct {
	GroupID      uint     `json:"group_id" validate:"required"`
	Code         string   `json:"code" validate:"required,min=2,max=32"`
	Title        string   `json:"title" validate:"required,min=2,max=255"`
	MaxPoints    *float64 `json:"max_points" validate:"omitempty,gte=0"`
	MinPoints    *float64 `json:"min_points"`
	DisplayOrder int      `json:"display_order" validate:"gte=0"`
}

// CriterionUpdateRequest updates criterion metadata only; caps on historical
// lines are never rescaled.
type CriterionUpdateRequest struct {
	Title        *string  `json:"title" validate:"omitempty,min=2,max=255"`
	MaxPoints    *float64 `json:"max_points" validate:"omitempty,gte=0"`
	MinPoints    *float64 `json:"min_points"`
	DisplayOrder *int     `json:"display_order" validate:"omitempty,gte=0"`
}

// CriterionGroupResponse is the serialized group representation.
type CriterionGroupResponse struct {
	ID           uint                `json:"id"`
	Name         string              `json:"name"`
	TargetType   string              `json:"target_type"`
	DisplayOrder int                 `json:"display_order"`
	Criteria     []CriterionResponse `json:"criteria,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// CriterionResponse is the serialized criterion representation.
type CriterionResponse struct {
	ID           uint      `json:"id"`
	GroupID      uint      `json:"group_id"`
	Code         string    `json:"code"`
	Title        string    `json:"title"`
	MaxPoints    *float64  `json:"max_points"`
	MinPoints    *float64  `json:"min_points"`
	IsActive     bool      `json:"is_active"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewCriterionGroupResponse converts a model into a DTO.
func NewCriterionGroupResponse(model models.CriterionGroup) CriterionGroupResponse {
	return CriterionGroupResponse{
		ID:           model.ID,
		Name:         model.Name,
		TargetType:   string(model.TargetType),
		DisplayOrder: model.DisplayOrder,
		Criteria:     NewCriterionResponseSlice(model.Criteria),
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewCriterionGroupResponseSlice converts a slice of models into DTOs.
func NewCriterionGroupResponseSlice(groups []models.CriterionGroup) []CriterionGroupResponse {
	responses := make([]CriterionGroupResponse, 0, len(groups))
	for _, group := range groups {
		responses = append(responses, NewCriterionGroupResponse(group))
	}

	return responses
}

// NewCriterionResponse converts a model into a DTO.
func NewCriterionResponse(model models.Criterion) CriterionResponse {
	return CriterionResponse{
		ID:           model.ID,
		GroupID:      model.GroupID,
		Code:         model.Code,
		Title:        model.Title,
		MaxPoints:    model.MaxPoints,
		MinPoints:    model.MinPoints,
		IsActive:     model.IsActive,
		DisplayOrder: model.DisplayOrder,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewCriterionResponseSlice converts a slice of models into DTOs.
func NewCriterionResponseSlice(criteria []models.Criterion) []CriterionResponse {
	responses := make([]CriterionResponse, 0, len(criteria))
	for _, criterion := range criteria {
		responses = append(responses, NewCriterionResponse(criterion))
	}

	return responses
}
