package emulator

import (
	"io"
	"net/http"
	stdsync "sync"

	"github.com/labstack/echo/v4"
)

type object struct {
	data        []byte
	contentType string
}

type objectStore struct {
	mu      stdsync.RWMutex
	objects map[string]object // "bucket/name"
}

func newObjectStore() *objectStore {
	return &objectStore{objects: make(map[string]object)}
}

func objectKey(ctx echo.Context) string {
	return ctx.Param("bucket") + "/" + ctx.Param("name")
}

func (s *server) putObject(ctx echo.Context) error {
	data, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	key := objectKey(ctx)

	s.objects.mu.Lock()
	s.objects.objects[key] = object{
		data:        data,
		contentType: ctx.Request().Header.Get(echo.HeaderContentType),
	}
	s.objects.mu.Unlock()

	return ctx.JSON(http.StatusCreated, echo.Map{"url": "/storage/v1/" + key})
}

func (s *server) getObject(ctx echo.Context) error {
	s.objects.mu.RLock()
	obj, ok := s.objects.objects[objectKey(ctx)]
	s.objects.mu.RUnlock()
	if !ok {
		return errHTTPNotFound
	}
	ct := obj.contentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ctx.Blob(http.StatusOK, ct, obj.data)
}

func (s *server) removeObject(ctx echo.Context) error {
	key := objectKey(ctx)

	s.objects.mu.Lock()
	_, ok := s.objects.objects[key]
	delete(s.objects.objects, key)
	s.objects.mu.Unlock()

	if !ok {
		return errHTTPNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}
