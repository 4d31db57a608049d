package enum

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Source fetches the ordered label list declared for an enum type.
// Implementations include the database inspector and the static YAML config.
type Source interface {
	EnumLabels(ctx context.Context, name string) ([]string, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, name string) ([]string, error)

// EnumLabels calls f(ctx, name).
func (f SourceFunc) EnumLabels(ctx context.Context, name string) ([]string, error) {
	return f(ctx, name)
}

// Cache holds resolved label sets keyed by enum type name. A label set is
// fetched at most once per name until Reset is called; concurrent misses for
// the same name share a single fetch, and the first stored result wins.
type Cache struct {
	mu     sync.RWMutex
	src    Source
	labels map[string][]string
	group  singleflight.Group
}

// NewCache returns a cache that resolves misses from src.
func NewCache(src Source) *Cache {
	return &Cache{src: src, labels: make(map[string][]string)}
}

// Default is the process-wide label cache used by types defined without WithCache.
var Default = NewCache(nil)

// Init sets the source of the Default cache and drops every cached label set.
func Init(src Source) {
	Default.SetSource(src)
	Default.Reset()
}

// Reset drops label sets from the Default cache. With no names, all are dropped.
func Reset(names ...string) {
	Default.Reset(names...)
}

// SetSource replaces the source used for future misses.
func (c *Cache) SetSource(src Source) {
	c.mu.Lock()
	c.src = src
	c.mu.Unlock()
}

// Labels returns the label set for name, fetching it on first use.
// The returned slice is shared and must not be modified.
func (c *Cache) Labels(ctx context.Context, name string) ([]string, error) {
	c.mu.RLock()
	labels, ok := c.labels[name]
	src := c.src
	c.mu.RUnlock()
	if ok {
		return labels, nil
	}
	if src == nil {
		return nil, fmt.Errorf("enum: no label source configured for %q", name)
	}
	// The fetch is shared by every waiter on name; only this caller stops
	// waiting when ctx is done.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(name, func() (any, error) {
		fetched, err := src.EnumLabels(fetchCtx, name)
		if err != nil {
			return nil, fmt.Errorf("enum: fetch labels of %q: %w", name, err)
		}
		if err := checkLabels(name, fetched); err != nil {
			return nil, err
		}
		return c.store(name, slices.Clip(slices.Clone(fetched))), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]string), nil
	}
}

// Prime stores labels for name unless a set is already cached, and returns
// the set that is cached afterwards.
func (c *Cache) Prime(name string, labels []string) ([]string, error) {
	if err := checkLabels(name, labels); err != nil {
		return nil, err
	}
	return c.store(name, slices.Clip(slices.Clone(labels))), nil
}

// Cached reports whether a label set for name is cached.
func (c *Cache) Cached(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.labels[name]
	return ok
}

// Reset drops the cached label sets of the given names, or of all names
// when called without arguments.
func (c *Cache) Reset(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(names) == 0 {
		clear(c.labels)
		return
	}
	for _, n := range names {
		delete(c.labels, n)
	}
}

func (c *Cache) store(name string, labels []string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.labels[name]; ok {
		return prev
	}
	c.labels[name] = labels
	return labels
}

func checkLabels(name string, labels []string) error {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			return fmt.Errorf("enum: duplicate label %q in %s", l, name)
		}
		seen[l] = struct{}{}
	}
	return nil
}
