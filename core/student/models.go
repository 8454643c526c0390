package student

import (
	"time"

	"github.com/google/uuid"

	"github.com/shulehq/shule/core"
)

type Student struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	ClassID       string    `json:"class_id"`
	GuardianPhone string    `json:"guardian_phone,omitempty"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

func (s Student) RecordID() string { return s.ID }

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	ClassID       string `json:"class_id" validate:"required"`
	GuardianPhone string `json:"guardian_phone,omitempty"`
}

// Student builds the record sent to the platform. The ID is assigned
// client-side so the optimistic copy is addressable before confirmation.
func (ns NewStudent) Student() Student {
	now := time.Now().UTC()
	return Student{
		ID:            uuid.NewString(),
		Name:          core.CleanString(ns.Name),
		Email:         core.CleanString(ns.Email, true /* lower */),
		ClassID:       ns.ClassID,
		GuardianPhone: core.CleanString(ns.GuardianPhone),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// UpdateStudent contains the fields of a Student that may be edited.
// Zero-valued fields are left untouched.
type UpdateStudent struct {
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	ClassID       string `json:"class_id,omitempty"`
	GuardianPhone string `json:"guardian_phone,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
}

// Apply merges set fields into a copy of `s`.
func (us UpdateStudent) Apply(s Student) Student {
	if us.Name != "" {
		s.Name = core.CleanString(us.Name)
	}
	if us.Email != "" {
		s.Email = core.CleanString(us.Email, true /* lower */)
	}
	if us.ClassID != "" {
		s.ClassID = us.ClassID
	}
	if us.GuardianPhone != "" {
		s.GuardianPhone = core.CleanString(us.GuardianPhone)
	}
	if us.AvatarURL != "" {
		s.AvatarURL = us.AvatarURL
	}
	s.UpdatedAt = time.Now().UTC()
	return s
}
