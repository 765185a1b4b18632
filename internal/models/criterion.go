package models

import "time"

// TargetType scopes a criterion group to the kind of subject it evaluates.
type TargetType string

const (
	// TargetStudent marks criteria applied to individual student records.
	TargetStudent TargetType = "student"
	// TargetClub marks criteria applied to club records.
	TargetClub TargetType = "club"
)

// Valid reports whether the target type is one of the known variants.
func (t TargetType) Valid() bool {
	return t == TargetStudent || t == TargetClub
}

// CriterionGroup is a top-level bucket of scoring criteria, e.g. "Discipline".
type CriterionGroup struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	TargetType   TargetType `gorm:"size:16;not null;index" json:"target_type"`
	DisplayOrder int        `gorm:"not null;default:0" json:"display_order"`
	Criteria     []Criterion `gorm:"foreignKey:GroupID" json:"criteria,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Criterion is a named scoring category with an optional point cap.
// MaxPoints == nil means uncapped accumulation.
type Criterion struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	GroupID      uint      `gorm:"not null;index" json:"group_id"`
	Group        CriterionGroup `json:"-"`
	Code         string    `gorm:"size:32;not null;uniqueIndex" json:"code"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	MaxPoints    *float64  `json:"max_points"`
	MinPoints    *float64  `json:"min_points"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName pins the table for CriterionGroup.
func (CriterionGroup) TableName() string { return "criterion_groups" }

// TableName pins the irregular plural so raw query fragments stay stable.
func (Criterion) TableName() string { return "criteria" }

// CapAllows reports whether adding points on top of the accumulated
// per-criterion total stays within the declared maximum. Uncapped criteria
// always allow accumulation.
func (c Criterion) CapAllows(accumulated, points float64) bool {
	if c.MaxPoints == nil {
		return true
	}
	return accumulated+points <= *c.MaxPoints+1e-9
}
