package emulator

import (
	"net/http"
	stdsync "sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/shulehq/shule/core"
)

// wireEvent is the push channel's message format, mirrored by the client.
type wireEvent struct {
	Entity string      `json:"entity"`
	Op     string      `json:"op"`
	ID     string      `json:"id"`
	Record interface{} `json:"record,omitempty"`
}

// hub fans row changes out to every websocket subscribed to an entity.
type hub struct {
	mu    stdsync.Mutex
	conns map[core.Entity]map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{conns: make(map[core.Entity]map[*websocket.Conn]struct{})}
}

func (h *hub) add(entity core.Entity, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[entity] == nil {
		h.conns[entity] = make(map[*websocket.Conn]struct{})
	}
	h.conns[entity][conn] = struct{}{}
}

func (h *hub) drop(entity core.Entity, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[entity], conn)
}

func (h *hub) broadcast(entity core.Entity, ev wireEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns[entity] {
		// a dead conn is dropped by its read loop
		_ = conn.WriteJSON(ev)
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conns := range h.conns {
		for conn := range conns {
			conn.Close()
		}
	}
	h.conns = make(map[core.Entity]map[*websocket.Conn]struct{})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func (s *server) subscribe(ctx echo.Context) error {
	if ctx.QueryParam("apikey") != s.opts.AnonKey {
		return errMissingAPIKey
	}
	entity := core.Entity(ctx.Param("entity"))
	if _, ok := s.tables.get(entity); !ok {
		return errHTTPNotFound
	}

	conn, err := upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return err
	}
	s.hub.add(entity, conn)

	// hold the connection open until the peer goes away
	go func() {
		defer func() {
			s.hub.drop(entity, conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}
