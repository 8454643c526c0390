package attendance

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of Attendance.Date.
const DateLayout = "2006-01-02"

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

type Attendance struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	ClassID   string    `json:"class_id"`
	Date      string    `json:"date"` // DateLayout
	Status    string    `json:"status"`
	MarkedBy  string    `json:"marked_by,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (a Attendance) RecordID() string { return a.ID }

// Mark is one student's status within a bulk marking unit.
type Mark struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=present absent late"`
}

// Attendance builds the record for a mark taken in `classID` on `date`.
func (m Mark) Attendance(classID, date, markedBy string) Attendance {
	now := time.Now().UTC()
	return Attendance{
		ID:        uuid.NewString(),
		StudentID: m.StudentID,
		ClassID:   classID,
		Date:      date,
		Status:    m.Status,
		MarkedBy:  markedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
