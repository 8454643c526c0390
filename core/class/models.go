package class

import (
	"time"

	"github.com/google/uuid"

	"github.com/shulehq/shule/core"
)

type Class struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Level         int       `json:"level"`
	HomeTeacherID string    `json:"home_teacher_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

func (c Class) RecordID() string { return c.ID }

// NewClass contains information needed to open a new Class.
type NewClass struct {
	Name          string `json:"name" validate:"required"`
	Level         int    `json:"level" validate:"required,min=1,max=13"`
	HomeTeacherID string `json:"home_teacher_id,omitempty"`
}

func (nc NewClass) Class() Class {
	now := time.Now().UTC()
	return Class{
		ID:            uuid.NewString(),
		Name:          core.CleanString(nc.Name),
		Level:         nc.Level,
		HomeTeacherID: nc.HomeTeacherID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// UpdateClass contains the fields of a Class that may be edited.
// Zero-valued fields are left untouched.
type UpdateClass struct {
	Name          string `json:"name,omitempty"`
	Level         int    `json:"level,omitempty" validate:"omitempty,min=1,max=13"`
	HomeTeacherID string `json:"home_teacher_id,omitempty"`
}

func (uc UpdateClass) Apply(c Class) Class {
	if uc.Name != "" {
		c.Name = core.CleanString(uc.Name)
	}
	if uc.Level != 0 {
		c.Level = uc.Level
	}
	if uc.HomeTeacherID != "" {
		c.HomeTeacherID = uc.HomeTeacherID
	}
	c.UpdatedAt = time.Now().UTC()
	return c
}
