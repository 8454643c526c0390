package platform

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	stdsync "sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/sync"
)

// Realtime dials the platform's push channel: one websocket per entity type,
// emitting row-level change events. Reconnection is the reconciler's job.
type Realtime struct {
	url    string
	creds  Credentials
	dialer *websocket.Dialer
	log    core.Logger
}

var _ sync.Dialer = (*Realtime)(nil)

func NewRealtime(conf *core.Config, creds Credentials, log core.Logger) *Realtime {
	u := conf.Realtime.URL
	if u == "" {
		u = wsURL(conf.Platform.URL)
	}
	return &Realtime{
		url:    strings.TrimRight(u, "/"),
		creds:  creds,
		dialer: websocket.DefaultDialer,
		log:    log,
	}
}

func wsURL(httpURL string) string {
	switch {
	case strings.HasPrefix(httpURL, "https://"):
		return "wss://" + strings.TrimPrefix(httpURL, "https://")
	case strings.HasPrefix(httpURL, "http://"):
		return "ws://" + strings.TrimPrefix(httpURL, "http://")
	}
	return httpURL
}

func (r *Realtime) Dial(ctx context.Context, entity core.Entity) (sync.Stream, error) {
	q := url.Values{}
	if key := r.creds.AnonKey(); key != "" {
		q.Set("apikey", key)
	}
	if tok := r.creds.AccessToken(); tok != "" {
		q.Set("token", tok)
	}
	u := r.url + "/realtime/v1/" + string(entity)
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	conn, resp, err := r.dialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
		}
		return nil, core.NewNetworkError(errors.Wrap(err, "dialing realtime channel"))
	}

	st := &stream{
		conn:   conn,
		events: make(chan core.ChangeEvent, 32),
		done:   make(chan struct{}),
	}
	go st.read(r.log)
	return st, nil
}

// wireEvent is the channel's message format.
type wireEvent struct {
	Entity string          `json:"entity"`
	Op     string          `json:"op"`
	ID     string          `json:"id"`
	Record json.RawMessage `json:"record,omitempty"`
}

type stream struct {
	conn   *websocket.Conn
	events chan core.ChangeEvent
	done   chan struct{}
	once   stdsync.Once
}

func (s *stream) Events() <-chan core.ChangeEvent { return s.events }

func (s *stream) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.conn.Close()
}

func (s *stream) read(log core.Logger) {
	defer close(s.events)
	for {
		var we wireEvent
		if err := s.conn.ReadJSON(&we); err != nil {
			return
		}
		ev, err := decodeEvent(we)
		if err != nil {
			log.Warn("platform: dropping malformed change event", err)
			continue
		}
		// the consumer may be gone with the buffer full; Close must still
		// release this goroutine
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

func decodeEvent(we wireEvent) (core.ChangeEvent, error) {
	ev := core.ChangeEvent{
		Entity: core.Entity(we.Entity),
		Op:     core.ChangeOp(we.Op),
		ID:     we.ID,
	}
	if ev.Op != core.ChangeDelete && len(we.Record) > 0 {
		rec, err := decodeOne(ev.Entity, we.Record)
		if err != nil {
			return ev, err
		}
		ev.Record = rec
	}
	return ev, nil
}
