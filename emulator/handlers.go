package emulator

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shulehq/shule/core"
)

func (s *server) table(ctx echo.Context) (*table, core.Entity, error) {
	entity := core.Entity(ctx.Param("entity"))
	t, ok := s.tables.get(entity)
	if !ok {
		return nil, entity, errHTTPNotFound
	}
	return t, entity, nil
}

func (s *server) list(ctx echo.Context) error {
	t, _, err := s.table(ctx)
	if err != nil {
		return err
	}
	filters := make(map[string]string)
	for name, vals := range ctx.QueryParams() {
		if name == "apikey" || len(vals) == 0 {
			continue
		}
		filters[name] = vals[0]
	}
	return ctx.JSON(http.StatusOK, t.list(filters))
}

func (s *server) get(ctx echo.Context) error {
	t, _, err := s.table(ctx)
	if err != nil {
		return err
	}
	r, ok := t.find(ctx.Param("id"))
	if !ok {
		return errHTTPNotFound
	}
	return ctx.JSON(http.StatusOK, r)
}

func (s *server) create(ctx echo.Context) error {
	t, entity, err := s.table(ctx)
	if err != nil {
		return err
	}
	var r row
	if err := ctx.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed record")
	}
	stored, ok := t.insert(r, uniqueEmail[entity])
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, map[string]string{"email": "email already taken"})
	}
	s.hub.broadcast(entity, wireEvent{
		Entity: string(entity),
		Op:     string(core.ChangeInsert),
		ID:     stored.id(),
		Record: stored,
	})
	return ctx.JSON(http.StatusCreated, stored)
}

func (s *server) update(ctx echo.Context) error {
	t, entity, err := s.table(ctx)
	if err != nil {
		return err
	}
	var patch row
	if err := ctx.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed record")
	}
	stored, ok := t.update(ctx.Param("id"), patch)
	if !ok {
		return errHTTPNotFound
	}
	s.hub.broadcast(entity, wireEvent{
		Entity: string(entity),
		Op:     string(core.ChangeUpdate),
		ID:     stored.id(),
		Record: stored,
	})
	return ctx.JSON(http.StatusOK, stored)
}

func (s *server) remove(ctx echo.Context) error {
	t, entity, err := s.table(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")
	if !t.remove(id) {
		return errHTTPNotFound
	}
	s.hub.broadcast(entity, wireEvent{
		Entity: string(entity),
		Op:     string(core.ChangeDelete),
		ID:     id,
	})
	return ctx.NoContent(http.StatusNoContent)
}
