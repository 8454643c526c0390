package platform

import (
	"context"
	"net/http"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/teacher"
	"github.com/shulehq/shule/sync"
)

// TeacherGateway is the typed remote gateway for teachers.
type TeacherGateway struct {
	c *Client
}

func (c *Client) Teachers() TeacherGateway { return TeacherGateway{c: c} }

func (g TeacherGateway) List(ctx context.Context) ([]teacher.Teacher, error) {
	var out []teacher.Teacher
	if err := g.c.get(ctx, "/v1/teachers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g TeacherGateway) Get(ctx context.Context, id string) (teacher.Teacher, error) {
	var out teacher.Teacher
	if err := g.c.get(ctx, "/v1/teachers/"+id, nil, &out); err != nil {
		return teacher.Teacher{}, err
	}
	return out, nil
}

func (g TeacherGateway) Create(ctx context.Context, nt teacher.NewTeacher) (teacher.Teacher, error) {
	if err := core.ValidateStruct(nt); err != nil {
		return teacher.Teacher{}, err
	}
	return g.create(ctx, nt.Teacher())
}

func (g TeacherGateway) create(ctx context.Context, rec teacher.Teacher) (teacher.Teacher, error) {
	var out teacher.Teacher
	if err := g.c.send(ctx, http.MethodPost, "/v1/teachers", nil, rec, &out); err != nil {
		return teacher.Teacher{}, err
	}
	return out, nil
}

func (g TeacherGateway) Update(ctx context.Context, id string, ut teacher.UpdateTeacher) (teacher.Teacher, error) {
	if err := core.ValidateStruct(ut); err != nil {
		return teacher.Teacher{}, err
	}
	var out teacher.Teacher
	if err := g.c.send(ctx, http.MethodPatch, "/v1/teachers/"+id, nil, ut, &out); err != nil {
		return teacher.Teacher{}, err
	}
	return out, nil
}

func (g TeacherGateway) Delete(ctx context.Context, id string) error {
	return g.c.send(ctx, http.MethodDelete, "/v1/teachers/"+id, nil, nil, nil)
}

func teacherLess(a, b core.Record) bool {
	ta, oka := a.(teacher.Teacher)
	tb, okb := b.(teacher.Teacher)
	return oka && okb && ta.Name < tb.Name
}

func (g TeacherGateway) ListQuery() sync.Query {
	return sync.Query{
		Key:   sync.NewKey(core.EntityTeacher, nil),
		Fetch: fetchRecords(g.List),
		Less:  teacherLess,
	}
}

func (g TeacherGateway) GetQuery(id string) sync.Query {
	return sync.Query{
		Key:    sync.NewKey(core.EntityTeacher, sync.Params{"id": id}),
		Single: true,
		Fetch: fetchOne(func(ctx context.Context) (teacher.Teacher, error) {
			return g.Get(ctx, id)
		}),
	}
}

func (g TeacherGateway) CreateMutation(nt teacher.NewTeacher) (sync.Mutation, error) {
	if err := core.ValidateStruct(nt); err != nil {
		return sync.Mutation{}, err
	}
	rec := nt.Teacher()
	return sync.Mutation{
		Entity: core.EntityTeacher,
		Op:     sync.OpCreate,
		Record: rec,
		Affects: func(k sync.Key) bool {
			return sync.MatchParams(k, sync.Params{"id": rec.ID})
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

func (g TeacherGateway) UpdateMutation(prior teacher.Teacher, ut teacher.UpdateTeacher) (sync.Mutation, error) {
	if err := core.ValidateStruct(ut); err != nil {
		return sync.Mutation{}, err
	}
	return sync.Mutation{
		Entity: core.EntityTeacher,
		Op:     sync.OpUpdate,
		Record: ut.Apply(prior),
		Write: func(ctx context.Context) (core.Record, error) {
			out, err := g.Update(ctx, prior.ID, ut)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	}, nil
}

func (g TeacherGateway) DeleteMutation(rec teacher.Teacher) sync.Mutation {
	return sync.Mutation{
		Entity: core.EntityTeacher,
		Op:     sync.OpDelete,
		Record: rec,
		Write: func(ctx context.Context) (core.Record, error) {
			return nil, g.Delete(ctx, rec.ID)
		},
	}
}
