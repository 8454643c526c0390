// Package sync reconciles cached query results, optimistic mutations and
// pushed change events into one consistent view per entity collection.
// Every piece of cached state is owned by a single-consumer task loop, so
// fetch completions, mutation settlements and realtime events apply as
// discrete, non-interleaving steps.
package sync

import (
	"sort"
	"strings"

	"github.com/shulehq/shule/core"
)

// Params are the serialized parameters of a query. Values must already be
// wire-format strings; the layer does not interpret them.
type Params map[string]string

// Key identifies one cached result set: (entity, canonical parameters).
// Equivalent parameter sets map to the same Key regardless of insertion order.
type Key struct {
	Entity core.Entity
	Params string // canonical encoding, "" for the unfiltered query
}

// NewKey canonicalizes `p` into a Key for `entity`.
func NewKey(entity core.Entity, p Params) Key {
	return Key{Entity: entity, Params: encodeParams(p)}
}

func encodeParams(p Params) string {
	if len(p) == 0 {
		return ""
	}
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(p[name])
	}
	return b.String()
}

func (k Key) String() string {
	if k.Params == "" {
		return string(k.Entity)
	}
	return string(k.Entity) + "?" + k.Params
}
