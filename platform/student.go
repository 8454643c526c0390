package platform

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/student"
	"github.com/shulehq/shule/sync"
)

// StudentGateway is the typed remote gateway for students.
type StudentGateway struct {
	c *Client
}

func (c *Client) Students() StudentGateway { return StudentGateway{c: c} }

func (g StudentGateway) List(ctx context.Context) ([]student.Student, error) {
	var out []student.Student
	if err := g.c.get(ctx, "/v1/students", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g StudentGateway) ByClass(ctx context.Context, classID string) ([]student.Student, error) {
	var out []student.Student
	q := url.Values{"class_id": {classID}}
	if err := g.c.get(ctx, "/v1/students", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g StudentGateway) Get(ctx context.Context, id string) (student.Student, error) {
	var out student.Student
	if err := g.c.get(ctx, "/v1/students/"+id, nil, &out); err != nil {
		return student.Student{}, err
	}
	return out, nil
}

func (g StudentGateway) Create(ctx context.Context, ns student.NewStudent) (student.Student, error) {
	if err := core.ValidateStruct(ns); err != nil {
		return student.Student{}, err
	}
	return g.create(ctx, ns.Student())
}

func (g StudentGateway) create(ctx context.Context, rec student.Student) (student.Student, error) {
	var out student.Student
	if err := g.c.send(ctx, http.MethodPost, "/v1/students", nil, rec, &out); err != nil {
		return student.Student{}, err
	}
	return out, nil
}

func (g StudentGateway) Update(ctx context.Context, id string, us student.UpdateStudent) (student.Student, error) {
	if err := core.ValidateStruct(us); err != nil {
		return student.Student{}, err
	}
	var out student.Student
	if err := g.c.send(ctx, http.MethodPatch, "/v1/students/"+id, nil, us, &out); err != nil {
		return student.Student{}, err
	}
	return out, nil
}

func (g StudentGateway) Delete(ctx context.Context, id string) error {
	return g.c.send(ctx, http.MethodDelete, "/v1/students/"+id, nil, nil, nil)
}

// --- cache queries ---

func studentLess(a, b core.Record) bool {
	sa, oka := a.(student.Student)
	sb, okb := b.(student.Student)
	return oka && okb && sa.Name < sb.Name
}

func (g StudentGateway) ListQuery() sync.Query {
	return sync.Query{
		Key:   sync.NewKey(core.EntityStudent, nil),
		Fetch: fetchRecords(g.List),
		Less:  studentLess,
	}
}

func (g StudentGateway) ByClassQuery(classID string) sync.Query {
	return sync.Query{
		Key: sync.NewKey(core.EntityStudent, sync.Params{"class_id": classID}),
		Fetch: fetchRecords(func(ctx context.Context) ([]student.Student, error) {
			return g.ByClass(ctx, classID)
		}),
		Less: studentLess,
	}
}

func (g StudentGateway) GetQuery(id string) sync.Query {
	return sync.Query{
		Key:    sync.NewKey(core.EntityStudent, sync.Params{"id": id}),
		Single: true,
		Fetch: fetchOne(func(ctx context.Context) (student.Student, error) {
			return g.Get(ctx, id)
		}),
	}
}

// --- mutations ---

func (g StudentGateway) CreateMutation(ns student.NewStudent) (sync.Mutation, error) {
	if err := core.ValidateStruct(ns); err != nil {
		return sync.Mutation{}, err
	}
	rec := ns.Student()
	return sync.Mutation{
		Entity: core.EntityStudent,
		Op:     sync.OpCreate,
		Record: rec,
		Affects: func(k sync.Key) bool {
			return sync.MatchParams(k, sync.Params{"class_id": rec.ClassID, "id": rec.ID})
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

func (g StudentGateway) UpdateMutation(prior student.Student, us student.UpdateStudent) (sync.Mutation, error) {
	if err := core.ValidateStruct(us); err != nil {
		return sync.Mutation{}, err
	}
	rec := us.Apply(prior)
	return sync.Mutation{
		Entity: core.EntityStudent,
		Op:     sync.OpUpdate,
		Record: rec,
		Write: func(ctx context.Context) (core.Record, error) {
			out, err := g.Update(ctx, prior.ID, us)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	}, nil
}

func (g StudentGateway) DeleteMutation(rec student.Student) sync.Mutation {
	return sync.Mutation{
		Entity: core.EntityStudent,
		Op:     sync.OpDelete,
		Record: rec,
		Write: func(ctx context.Context) (core.Record, error) {
			return nil, g.Delete(ctx, rec.ID)
		},
	}
}
