package platform

import (
	"context"
	"net/http"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/class"
	"github.com/shulehq/shule/sync"
)

// ClassGateway is the typed remote gateway for classes.
type ClassGateway struct {
	c *Client
}

func (c *Client) Classes() ClassGateway { return ClassGateway{c: c} }

func (g ClassGateway) List(ctx context.Context) ([]class.Class, error) {
	var out []class.Class
	if err := g.c.get(ctx, "/v1/classes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g ClassGateway) Get(ctx context.Context, id string) (class.Class, error) {
	var out class.Class
	if err := g.c.get(ctx, "/v1/classes/"+id, nil, &out); err != nil {
		return class.Class{}, err
	}
	return out, nil
}

func (g ClassGateway) Create(ctx context.Context, nc class.NewClass) (class.Class, error) {
	if err := core.ValidateStruct(nc); err != nil {
		return class.Class{}, err
	}
	return g.create(ctx, nc.Class())
}

func (g ClassGateway) create(ctx context.Context, rec class.Class) (class.Class, error) {
	var out class.Class
	if err := g.c.send(ctx, http.MethodPost, "/v1/classes", nil, rec, &out); err != nil {
		return class.Class{}, err
	}
	return out, nil
}

func (g ClassGateway) Update(ctx context.Context, id string, uc class.UpdateClass) (class.Class, error) {
	if err := core.ValidateStruct(uc); err != nil {
		return class.Class{}, err
	}
	var out class.Class
	if err := g.c.send(ctx, http.MethodPatch, "/v1/classes/"+id, nil, uc, &out); err != nil {
		return class.Class{}, err
	}
	return out, nil
}

func (g ClassGateway) Delete(ctx context.Context, id string) error {
	return g.c.send(ctx, http.MethodDelete, "/v1/classes/"+id, nil, nil, nil)
}

// classLess orders by level, then name within a level.
func classLess(a, b core.Record) bool {
	ca, oka := a.(class.Class)
	cb, okb := b.(class.Class)
	if !oka || !okb {
		return false
	}
	if ca.Level != cb.Level {
		return ca.Level < cb.Level
	}
	return ca.Name < cb.Name
}

func (g ClassGateway) ListQuery() sync.Query {
	return sync.Query{
		Key:   sync.NewKey(core.EntityClass, nil),
		Fetch: fetchRecords(g.List),
		Less:  classLess,
	}
}

func (g ClassGateway) GetQuery(id string) sync.Query {
	return sync.Query{
		Key:    sync.NewKey(core.EntityClass, sync.Params{"id": id}),
		Single: true,
		Fetch: fetchOne(func(ctx context.Context) (class.Class, error) {
			return g.Get(ctx, id)
		}),
	}
}

func (g ClassGateway) CreateMutation(nc class.NewClass) (sync.Mutation, error) {
	if err := core.ValidateStruct(nc); err != nil {
		return sync.Mutation{}, err
	}
	rec := nc.Class()
	return sync.Mutation{
		Entity: core.EntityClass,
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

func (g ClassGateway) UpdateMutation(prior class.Class, uc class.UpdateClass) (sync.Mutation, error) {
	if err := core.ValidateStruct(uc); err != nil {
		return sync.Mutation{}, err
	}
	return sync.Mutation{
		Entity: core.EntityClass,
		Op:     sync.OpUpdate,
		Record: uc.Apply(prior),
		Write: func(ctx context.Context) (core.Record, error) {
			out, err := g.Update(ctx, prior.ID, uc)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	}, nil
}

func (g ClassGateway) DeleteMutation(rec class.Class) sync.Mutation {
	return sync.Mutation{
		Entity: core.EntityClass,
		Op:     sync.OpDelete,
		Record: rec,
		Write: func(ctx context.Context) (core.Record, error) {
			return nil, g.Delete(ctx, rec.ID)
		},
	}
}
