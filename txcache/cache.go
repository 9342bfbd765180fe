// Package txcache holds values memoized for the lifetime of one unit-of-work.
//
// A Cache is created when a transaction starts and dropped when it ends, so
// concurrent units of work never see each other's entries. It is not safe for
// concurrent use. A nil *Cache reads as empty and ignores writes.
package txcache

// Cache is a string-keyed memo map.
type Cache struct {
	m map[string]any
}

func New() *Cache {
	return &Cache{m: make(map[string]any)}
}

func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.m[key]
	return v, ok
}

func (c *Cache) Put(key string, value any) {
	if c == nil {
		return
	}
	c.m[key] = value
}

// ComputeIfAbsent returns the cached value for key, storing supplier() first when absent.
func (c *Cache) ComputeIfAbsent(key string, supplier func() any) any {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := supplier()
	c.Put(key, v)
	return v
}

// Get returns the value under key when present and of type T.
func Get[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// ComputeIfAbsent is the typed form of Cache.ComputeIfAbsent. A stored value of
// another type is replaced.
func ComputeIfAbsent[T any](c *Cache, key string, supplier func() T) T {
	if v, ok := Get[T](c, key); ok {
		return v
	}
	v := supplier()
	c.Put(key, v)
	return v
}
