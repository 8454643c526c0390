package timetable

import (
	"time"

	"github.com/google/uuid"

	"github.com/shulehq/shule/core"
)

// Period is one timetable slot of a class.
type Period struct {
	ID        string    `json:"id"`
	ClassID   string    `json:"class_id"`
	TeacherID string    `json:"teacher_id"`
	Subject   string    `json:"subject"`
	Weekday   int       `json:"weekday"`   // 1 (Monday) .. 7 (Sunday)
	StartsAt  string    `json:"starts_at"` // "15:04"
	EndsAt    string    `json:"ends_at"`   // "15:04"
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (p Period) RecordID() string { return p.ID }

// NewPeriod contains information needed to schedule a new Period.
type NewPeriod struct {
	ClassID   string `json:"class_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	Weekday   int    `json:"weekday" validate:"required,min=1,max=7"`
	StartsAt  string `json:"starts_at" validate:"required"`
	EndsAt    string `json:"ends_at" validate:"required"`
}

func (np NewPeriod) Period() Period {
	now := time.Now().UTC()
	return Period{
		ID:        uuid.NewString(),
		ClassID:   np.ClassID,
		TeacherID: np.TeacherID,
		Subject:   core.CleanString(np.Subject),
		Weekday:   np.Weekday,
		StartsAt:  np.StartsAt,
		EndsAt:    np.EndsAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
