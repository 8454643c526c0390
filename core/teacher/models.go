package teacher

import (
	"time"

	"github.com/google/uuid"

	"github.com/shulehq/shule/core"
)

type Teacher struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (t Teacher) RecordID() string { return t.ID }

// NewTeacher contains information needed to register a new Teacher.
type NewTeacher struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Phone   string `json:"phone,omitempty"`
}

func (nt NewTeacher) Teacher() Teacher {
	now := time.Now().UTC()
	return Teacher{
		ID:        uuid.NewString(),
		Name:      core.CleanString(nt.Name),
		Email:     core.CleanString(nt.Email, true /* lower */),
		Subject:   core.CleanString(nt.Subject),
		Phone:     core.CleanString(nt.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateTeacher contains the fields of a Teacher that may be edited.
// Zero-valued fields are left untouched.
type UpdateTeacher struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Subject   string `json:"subject,omitempty"`
	Phone     string `json:"phone,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (ut UpdateTeacher) Apply(t Teacher) Teacher {
	if ut.Name != "" {
		t.Name = core.CleanString(ut.Name)
	}
	if ut.Email != "" {
		t.Email = core.CleanString(ut.Email, true /* lower */)
	}
	if ut.Subject != "" {
		t.Subject = core.CleanString(ut.Subject)
	}
	if ut.Phone != "" {
		t.Phone = core.CleanString(ut.Phone)
	}
	if ut.AvatarURL != "" {
		t.AvatarURL = ut.AvatarURL
	}
	t.UpdatedAt = time.Now().UTC()
	return t
}
