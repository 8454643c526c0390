package platform

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/attendance"
	"github.com/shulehq/shule/sync"
)

// AttendanceGateway is the typed remote gateway for attendance records.
type AttendanceGateway struct {
	c *Client
}

func (c *Client) Attendance() AttendanceGateway { return AttendanceGateway{c: c} }

// ByClassDate lists the records of one class on one day, the unit attendance
// is taken in.
func (g AttendanceGateway) ByClassDate(ctx context.Context, classID, date string) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	q := url.Values{"class_id": {classID}, "date": {date}}
	if err := g.c.get(ctx, "/v1/attendance", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByDate lists a whole day across classes, for the daily summary view.
func (g AttendanceGateway) ByDate(ctx context.Context, date string) ([]attendance.Attendance, error) {
	var out []attendance.Attendance
	q := url.Values{"date": {date}}
	if err := g.c.get(ctx, "/v1/attendance", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g AttendanceGateway) create(ctx context.Context, rec attendance.Attendance) (attendance.Attendance, error) {
	var out attendance.Attendance
	if err := g.c.send(ctx, http.MethodPost, "/v1/attendance", nil, rec, &out); err != nil {
		return attendance.Attendance{}, err
	}
	return out, nil
}

// attendanceLess keeps a day's records in student order so re-marking lands
// in a stable spot.
func attendanceLess(a, b core.Record) bool {
	aa, oka := a.(attendance.Attendance)
	ab, okb := b.(attendance.Attendance)
	return oka && okb && aa.StudentID < ab.StudentID
}

func (g AttendanceGateway) ByClassDateQuery(classID, date string) sync.Query {
	return sync.Query{
		Key: sync.NewKey(core.EntityAttendance, sync.Params{"class_id": classID, "date": date}),
		Fetch: fetchRecords(func(ctx context.Context) ([]attendance.Attendance, error) {
			return g.ByClassDate(ctx, classID, date)
		}),
		Less: attendanceLess,
	}
}

func (g AttendanceGateway) ByDateQuery(date string) sync.Query {
	return sync.Query{
		Key: sync.NewKey(core.EntityAttendance, sync.Params{"date": date}),
		Fetch: fetchRecords(func(ctx context.Context) ([]attendance.Attendance, error) {
			return g.ByDate(ctx, date)
		}),
		Less: attendanceLess,
	}
}

// MarkMutations builds one create mutation per student for a bulk marking of
// `classID` on `date`. Each record stands alone: a failed write rolls back
// only its own mark.
func (g AttendanceGateway) MarkMutations(classID, date, markedBy string, marks []attendance.Mark) ([]sync.Mutation, error) {
	if len(marks) == 0 {
		return nil, errors.New("platform: no marks to record")
	}
	muts := make([]sync.Mutation, 0, len(marks))
	for _, m := range marks {
		if err := core.ValidateStruct(m); err != nil {
			return nil, err
		}
		rec := m.Attendance(classID, date, markedBy)
		muts = append(muts, sync.Mutation{
			Entity: core.EntityAttendance,
			Op:     sync.OpCreate,
			Record: rec,
			Affects: func(k sync.Key) bool {
				return sync.MatchParams(k, sync.Params{"class_id": classID, "date": date})
			},
			Write: func(ctx context.Context) (core.Record, error) {
				out, err := g.create(ctx, rec)
				if err != nil {
					return nil, err
				}
				return out, nil
			},
		})
	}
	return muts, nil
}
