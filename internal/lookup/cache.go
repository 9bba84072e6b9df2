// Package lookup provides the run-scoped memoizing cache used to join clinic
// records by whichever key a caller happens to hold. The store keeps documents
// opaque, so cross-entity references (appointment → patient, appointment →
// physician label, appointment → procedure code) resolve by batch-listing an
// entity kind once and registering each record under every key shape that
// other records use to point at it.
//
// A cache instance lives for one aggregation run or one page load. Staleness
// across runs is acceptable; sharing an instance across unrelated operations
// is not, so callers construct a fresh cache per run instead of holding a
// package-level one.
package lookup

import "context"

type entry[V any] struct {
	value V
	found bool
}

// Cache memoizes values under string keys. A key can resolve to a value, to
// an explicit not-found (negative entry), or be absent entirely. Negative
// entries let a failed or missing reference degrade once instead of refetching
// on every lookup.
type Cache[V any] struct {
	entries map[string]entry[V]
	loaded  map[string]bool
}

func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		loaded:  make(map[string]bool),
	}
}

// RegisterAliases stores v under every given key. Empty keys are skipped so
// callers can pass optional key shapes unconditionally.
func (c *Cache[V]) RegisterAliases(v V, keys ...string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		c.entries[k] = entry[V]{value: v, found: true}
	}
}

// MarkMissing records a negative entry for key.
func (c *Cache[V]) MarkMissing(key string) {
	if key == "" {
		return
	}
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = entry[V]{}
	}
}

// Lookup returns the cached value for key. It reports false both for negative
// entries and for keys never seen.
func (c *Cache[V]) Lookup(key string) (V, bool) {
	e := c.entries[key]
	return e.value, e.found
}

// GetOrFetch resolves key, running fetch at most once per scope on a miss.
// fetch is expected to load a batch and register it via RegisterAliases; the
// key is then looked up again. A fetch error, or a key the batch did not
// cover, resolves to a negative entry so other keys keep working. The error
// is swallowed here by contract and must be reported by the fetcher itself.
func (c *Cache[V]) GetOrFetch(ctx context.Context, scope, key string, fetch func(context.Context) error) (V, bool) {
	if v, ok := c.Lookup(key); ok {
		return v, true
	}
	if _, seen := c.entries[key]; seen {
		var zero V
		return zero, false
	}

	if !c.loaded[scope] {
		c.loaded[scope] = true
		// The error is intentionally not propagated: one unresolvable
		// reference must not abort the rest of the aggregation.
		_ = fetch(ctx)
	}

	if v, ok := c.Lookup(key); ok {
		return v, true
	}
	c.MarkMissing(key)
	var zero V
	return zero, false
}

// Len reports how many keys (including negative entries) are registered.
func (c *Cache[V]) Len() int {
	return len(c.entries)
}
