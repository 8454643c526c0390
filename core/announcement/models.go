package announcement

import (
	"time"

	"github.com/google/uuid"

	"github.com/shulehq/shule/core"
)

// Audiences
const (
	AudienceAll      = "all"
	AudienceTeachers = "teachers"
	AudienceStudents = "students"
)

type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Audience  string    `json:"audience"`
	AuthorID  string    `json:"author_id,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (a Announcement) RecordID() string { return a.ID }

// NewAnnouncement contains information needed to publish a new Announcement.
type NewAnnouncement struct {
	Title    string `json:"title" validate:"required"`
	Body     string `json:"body" validate:"required"`
	Audience string `json:"audience" validate:"required,oneof=all teachers students"`
}

func (na NewAnnouncement) Announcement(authorID string) Announcement {
	now := time.Now().UTC()
	return Announcement{
		ID:        uuid.NewString(),
		Title:     core.CleanString(na.Title),
		Body:      na.Body,
		Audience:  na.Audience,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
