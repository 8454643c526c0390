package platform

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/timetable"
	"github.com/shulehq/shule/sync"
)

// TimetableGateway is the typed remote gateway for timetable periods.
type TimetableGateway struct {
	c *Client
}

func (c *Client) Timetable() TimetableGateway { return TimetableGateway{c: c} }

func (g TimetableGateway) ByClass(ctx context.Context, classID string) ([]timetable.Period, error) {
	var out []timetable.Period
	q := url.Values{"class_id": {classID}}
	if err := g.c.get(ctx, "/v1/timetable", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g TimetableGateway) Create(ctx context.Context, np timetable.NewPeriod) (timetable.Period, error) {
	if err := core.ValidateStruct(np); err != nil {
		return timetable.Period{}, err
	}
	return g.create(ctx, np.Period())
}

func (g TimetableGateway) create(ctx context.Context, rec timetable.Period) (timetable.Period, error) {
	var out timetable.Period
	if err := g.c.send(ctx, http.MethodPost, "/v1/timetable", nil, rec, &out); err != nil {
		return timetable.Period{}, err
	}
	return out, nil
}

func (g TimetableGateway) Delete(ctx context.Context, id string) error {
	return g.c.send(ctx, http.MethodDelete, "/v1/timetable/"+id, nil, nil, nil)
}

// periodLess orders a week chronologically: weekday, then start time.
func periodLess(a, b core.Record) bool {
	pa, oka := a.(timetable.Period)
	pb, okb := b.(timetable.Period)
	if !oka || !okb {
		return false
	}
	if pa.Weekday != pb.Weekday {
		return pa.Weekday < pb.Weekday
	}
	return pa.StartsAt < pb.StartsAt
}

func (g TimetableGateway) ByClassQuery(classID string) sync.Query {
	return sync.Query{
		Key: sync.NewKey(core.EntityTimetable, sync.Params{"class_id": classID}),
		Fetch: fetchRecords(func(ctx context.Context) ([]timetable.Period, error) {
			return g.ByClass(ctx, classID)
		}),
		Less: periodLess,
	}
}

func (g TimetableGateway) CreateMutation(np timetable.NewPeriod) (sync.Mutation, error) {
	if err := core.ValidateStruct(np); err != nil {
		return sync.Mutation{}, err
	}
	rec := np.Period()
	return sync.Mutation{
		Entity: core.EntityTimetable,
		Op:     sync.OpCreate,
		Record: rec,
		Affects: func(k sync.Key) bool {
			return sync.MatchParams(k, sync.Params{"class_id": rec.ClassID})
		},
		Write: func(ctx context.Context) (core.Record, error) {
			out, err := g.create(ctx, rec)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	}, nil
}

func (g TimetableGateway) DeleteMutation(rec timetable.Period) sync.Mutation {
	return sync.Mutation{
		Entity: core.EntityTimetable,
		Op:     sync.OpDelete,
		Record: rec,
		Write: func(ctx context.Context) (core.Record, error) {
			return nil, g.Delete(ctx, rec.ID)
		},
	}
}
