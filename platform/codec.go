package platform

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/announcement"
	"github.com/shulehq/shule/core/attendance"
	"github.com/shulehq/shule/core/class"
	"github.com/shulehq/shule/core/student"
	"github.com/shulehq/shule/core/teacher"
	"github.com/shulehq/shule/core/timetable"
)

// decodeOne rebuilds one typed record from its wire form.
func decodeOne(entity core.Entity, raw []byte) (core.Record, error) {
	var (
		rec core.Record
		err error
	)
	switch entity {
	case core.EntityStudent:
		var v student.Student
		err = json.Unmarshal(raw, &v)
		rec = v
	case core.EntityTeacher:
		var v teacher.Teacher
		err = json.Unmarshal(raw, &v)
		rec = v
	case core.EntityClass:
		var v class.Class
		err = json.Unmarshal(raw, &v)
		rec = v
	case core.EntityAttendance:
		var v attendance.Attendance
		err = json.Unmarshal(raw, &v)
		rec = v
	case core.EntityTimetable:
		var v timetable.Period
		err = json.Unmarshal(raw, &v)
		rec = v
	case core.EntityAnnouncement:
		var v announcement.Announcement
		err = json.Unmarshal(raw, &v)
		rec = v
	default:
		return nil, errors.Errorf("platform: unknown entity %q", entity)
	}
	if err != nil {
		return nil, errors.Wrap(err, "platform: decoding record")
	}
	return rec, nil
}

// DecodeRecords rebuilds typed records from a persisted snapshot row.
// Matches sync.DecodeFunc.
func DecodeRecords(entity core.Entity, single bool, data []byte) ([]core.Record, error) {
	if single {
		rec, err := decodeOne(entity, data)
		if err != nil {
			return nil, err
		}
		return []core.Record{rec}, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, errors.Wrap(err, "platform: decoding snapshot collection")
	}
	recs := make([]core.Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := decodeOne(entity, raw)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
