package dto

import (
	"time"

	"github.com/Tanth170203/eduxtend-api/internal/models"
)

// AuditLogResponse is the serialized representation of one audit entry.
type AuditLogResponse struct {
	ID         uint                   `json:"id"`
	RecordType string                 `json:"record_type"`
	RecordID   uint                   `json:"record_id"`
	ActorID    uint                   `json:"actor_id"`
	Action     string                 `json:"action"`
	OldValue   map[string]interface{} `json:"old_value"`
	NewValue   map[string]interface{} `json:"new_value"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewAuditLogResponse converts a model into a DTO.
func NewAuditLogResponse(model models.EvaluationAuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:         model.ID,
		RecordType: string(model.RecordType),
		RecordID:   model.RecordID,
		ActorID:    model.ActorID,
		Action:     model.Action,
		OldValue:   model.OldValue,
		NewValue:   model.NewValue,
		CreatedAt:  model.CreatedAt,
	}
}

// NewAuditLogResponseSlice converts a slice of models into DTOs.
func NewAuditLogResponseSlice(entries []models.EvaluationAuditLog) []AuditLogResponse {
	responses := make([]AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewAuditLogResponse(entry))
	}

	return responses
}
