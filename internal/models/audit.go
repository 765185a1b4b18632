package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit action labels written by the manual override workflow.
const (
	AuditActionManualScoreAdded   = "ManualScoreAdded"
	AuditActionManualScoreUpdated = "ManualScoreUpdated"
	AuditActionManualScoreDeleted = "ManualScoreDeleted"
)

// EvaluationAuditLog records who changed a score line and how. Entries are
// append-only: nothing in the codebase updates or deletes them.
type EvaluationAuditLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	RecordType TargetType        `gorm:"size:16;not null;index" json:"record_type"`
	RecordID   uint              `gorm:"not null;index" json:"record_id"`
	ActorID    uint              `gorm:"not null;index" json:"actor_id"`
	Action     string            `gorm:"size:64;not null" json:"action"`
	OldValue   datatypes.JSONMap `gorm:"type:json" json:"old_value"`
	NewValue   datatypes.JSONMap `gorm:"type:json" json:"new_value"`
	CreatedAt  time.Time         `json:"created_at"`
}
