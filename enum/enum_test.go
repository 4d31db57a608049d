package enum_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/pgcomposite"
	"github.com/syssam/pgcomposite/enum"
)

var contentStatus = []string{"created", "draft", "published", "archived"}

func newStatus(t *testing.T) *enum.Type {
	t.Helper()
	src := enum.SourceFunc(func(_ context.Context, name string) ([]string, error) {
		switch name {
		case "content_status":
			return contentStatus, nil
		case "mock":
			return append(append([]string{}, contentStatus...), "15"), nil
		}
		return nil, pgcomposite.NewNotFoundError("enum", name)
	})
	return enum.Define("content_status", enum.WithCache(enum.NewCache(src)))
}

func TestTypeNew(t *testing.T) {
	status := newStatus(t)

	t.Run("Blank", func(t *testing.T) {
		for _, v := range []any{nil, "", []string{}, []any{}, map[string]any{}} {
			got, err := status.New(v)
			require.NoError(t, err)
			assert.Nil(t, got)
		}
	})

	t.Run("Index", func(t *testing.T) {
		v, err := status.New(0)
		require.NoError(t, err)
		created, err := status.New("created")
		require.NoError(t, err)
		ok, err := v.Equal(created)
		require.NoError(t, err)
		assert.True(t, ok)

		v, err = status.New(int64(3))
		require.NoError(t, err)
		assert.Equal(t, "archived", v.Label())
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		for _, v := range []any{4, 5, -1, 1.5} {
			_, err := status.New(v)
			assert.True(t, pgcomposite.IsOutOfBounds(err), "value %v", v)
		}
		_, err := status.New(5)
		assert.ErrorContains(t, err, "out of bounds")
	})

	t.Run("UnknownLabel", func(t *testing.T) {
		_, err := status.New("updated")
		assert.True(t, pgcomposite.IsUnknownLabel(err))
		assert.ErrorContains(t, err, "not valid for")
	})

	t.Run("Copy", func(t *testing.T) {
		draft := status.MustNew("draft")
		cp, err := status.New(draft)
		require.NoError(t, err)
		assert.NotSame(t, draft, cp)
		assert.Equal(t, 1, cp.Index())
	})

	t.Run("InvalidShape", func(t *testing.T) {
		_, err := status.New(true)
		assert.True(t, pgcomposite.IsInvalidValue(err))
	})

	t.Run("Bytes", func(t *testing.T) {
		v, err := status.New([]byte("published"))
		require.NoError(t, err)
		assert.Equal(t, 2, v.Index())
	})
}

func TestValueCompare(t *testing.T) {
	status := newStatus(t)
	draft := status.MustNew("draft")

	t.Run("Values", func(t *testing.T) {
		gt, err := draft.Greater(status.MustNew("created"))
		require.NoError(t, err)
		assert.True(t, gt)
		lt, err := draft.Less(status.MustNew("archived"))
		require.NoError(t, err)
		assert.True(t, lt)
		eq, err := draft.Equal(status.MustNew("published"))
		require.NoError(t, err)
		assert.False(t, eq)
	})

	t.Run("LabelOrderNotLexical", func(t *testing.T) {
		// "archived" < "draft" lexically, but follows it in the label set.
		lt, err := draft.Less("archived")
		require.NoError(t, err)
		assert.True(t, lt)
	})

	t.Run("Strings", func(t *testing.T) {
		gt, err := draft.Greater("created")
		require.NoError(t, err)
		assert.True(t, gt)
		eq, err := draft.Equal("published")
		require.NoError(t, err)
		assert.False(t, eq)
		_, err = draft.Equal("updated")
		assert.True(t, pgcomposite.IsUnknownLabel(err))
	})

	t.Run("Numbers", func(t *testing.T) {
		gt, err := draft.Greater(0)
		require.NoError(t, err)
		assert.True(t, gt)
		lt, err := draft.Less(3)
		require.NoError(t, err)
		assert.True(t, lt)
		eq, err := draft.Equal(2.5)
		require.NoError(t, err)
		assert.False(t, eq)
		// Numbers are not bounds checked.
		lt, err = draft.Less(100)
		require.NoError(t, err)
		assert.True(t, lt)
	})

	t.Run("CrossType", func(t *testing.T) {
		cache := enum.NewCache(enum.SourceFunc(func(context.Context, string) ([]string, error) {
			return append(append([]string{}, contentStatus...), "15"), nil
		}))
		mock := enum.Define("mock", enum.WithCache(cache))
		for _, cmp := range []func(any) (bool, error){draft.Equal, draft.Less, draft.Greater} {
			_, err := cmp(mock.MustNew("draft"))
			require.Error(t, err)
			assert.True(t, pgcomposite.IsCrossTypeComparison(err))
			var cerr *pgcomposite.CrossTypeComparisonError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, "content_status", cerr.Left)
			assert.Equal(t, "mock", cerr.Right)
		}
	})

	t.Run("InvalidOperand", func(t *testing.T) {
		_, err := draft.Greater(true)
		assert.True(t, pgcomposite.IsInvalidComparison(err))
		_, err = draft.Less([]any{})
		assert.True(t, pgcomposite.IsInvalidComparison(err))
		_, err = draft.Equal((*enum.Value)(nil))
		assert.True(t, pgcomposite.IsInvalidComparison(err))
	})
}

func TestValueQueries(t *testing.T) {
	status := newStatus(t)
	draft := status.MustNew("draft")

	assert.True(t, draft.Is("draft"))
	assert.False(t, draft.Is("published"))
	assert.False(t, draft.Is("nope"))
	assert.Equal(t, "draft", draft.String())
	assert.Equal(t, "content_status", draft.Type().Name())

	archived, err := draft.Replace("archived")
	require.NoError(t, err)
	assert.Equal(t, 3, archived.Index())
	assert.True(t, draft.Is("draft"), "replace must not mutate the receiver")

	created, err := draft.Replace(0)
	require.NoError(t, err)
	assert.True(t, created.Is("created"))

	dv, err := draft.Value()
	require.NoError(t, err)
	assert.Equal(t, "draft", dv)

	b, err := json.Marshal(map[string]*enum.Value{"s": draft, "n": nil})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"draft","n":null}`, string(b))
}

func TestNilValue(t *testing.T) {
	for name, v := range map[string]*enum.Value{"Nil": nil, "Zero": {}} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, -1, v.Index())
			assert.Equal(t, "", v.Label())
			assert.False(t, v.Is(""))
			_, err := v.Compare("draft")
			assert.True(t, pgcomposite.IsInvalidComparison(err))
			_, err = v.Equal(v)
			assert.True(t, pgcomposite.IsInvalidComparison(err))
			_, err = v.Replace("draft")
			assert.True(t, pgcomposite.IsInvalidValue(err))
		})
	}
	assert.Nil(t, (*enum.Value)(nil).Type())
}

func TestStaticLabels(t *testing.T) {
	ctx := context.Background()
	status := enum.Define("content_status", enum.WithLabels(contentStatus...))
	_, err := status.Labels(ctx)
	require.NoError(t, err)
	allocs := testing.AllocsPerRun(100, func() {
		_, _ = status.Labels(ctx)
	})
	assert.Zero(t, allocs, "static label sets are validated once")

	dup := enum.Define("dup", enum.WithLabels("a", "a"))
	for range 2 {
		_, err := dup.Labels(ctx)
		assert.ErrorContains(t, err, "duplicate label")
	}
}

func TestIndexIsPositional(t *testing.T) {
	cache := enum.NewCache(enum.SourceFunc(func(context.Context, string) ([]string, error) {
		return append(append([]string{}, contentStatus...), "15"), nil
	}))
	mock := enum.Define("mock", enum.WithCache(cache))
	v, err := mock.New("15")
	require.NoError(t, err)
	assert.Equal(t, 4, v.Index())
	assert.NotEqual(t, 15, v.Index())
}

func TestValues(t *testing.T) {
	status := enum.Define("content_status", enum.WithLabels(contentStatus...))
	vs, err := status.Values()
	require.NoError(t, err)
	require.Len(t, vs, 4)
	for i, v := range vs {
		assert.Equal(t, i, v.Index())
		assert.Equal(t, contentStatus[i], v.Label())
	}
	n, err := status.Len()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = status.At(4)
	assert.True(t, pgcomposite.IsOutOfBounds(err))
}

func TestCache(t *testing.T) {
	t.Run("ResolvesOnce", func(t *testing.T) {
		var calls atomic.Int32
		release := make(chan struct{})
		cache := enum.NewCache(enum.SourceFunc(func(context.Context, string) ([]string, error) {
			calls.Add(1)
			<-release
			return contentStatus, nil
		}))

		const n = 16
		var wg sync.WaitGroup
		results := make([][]string, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				labels, err := cache.Labels(context.Background(), "content_status")
				assert.NoError(t, err)
				results[i] = labels
			}()
		}
		close(release)
		wg.Wait()

		for _, r := range results {
			assert.Equal(t, contentStatus, r)
		}
		_, err := cache.Labels(context.Background(), "content_status")
		require.NoError(t, err)
		assert.LessOrEqual(t, calls.Load(), int32(n))
		before := calls.Load()
		_, err = cache.Labels(context.Background(), "content_status")
		require.NoError(t, err)
		assert.Equal(t, before, calls.Load(), "cached sets are not re-fetched")
	})

	t.Run("CanceledWaiter", func(t *testing.T) {
		started, release := make(chan struct{}), make(chan struct{})
		fetchErr := make(chan error, 1)
		cache := enum.NewCache(enum.SourceFunc(func(ctx context.Context, _ string) ([]string, error) {
			close(started)
			<-release
			fetchErr <- ctx.Err()
			return contentStatus, nil
		}))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			_, err := cache.Labels(ctx, "content_status")
			done <- err
		}()
		<-started
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)

		close(release)
		assert.NoError(t, <-fetchErr, "the shared fetch outlives the canceled caller")
		assert.Eventually(t, func() bool { return cache.Cached("content_status") }, time.Second, 5*time.Millisecond)
		labels, err := cache.Labels(context.Background(), "content_status")
		require.NoError(t, err)
		assert.Equal(t, contentStatus, labels)
	})

	t.Run("Reset", func(t *testing.T) {
		var calls atomic.Int32
		cache := enum.NewCache(enum.SourceFunc(func(context.Context, string) ([]string, error) {
			calls.Add(1)
			return contentStatus, nil
		}))
		_, err := cache.Labels(context.Background(), "a")
		require.NoError(t, err)
		assert.True(t, cache.Cached("a"))
		cache.Reset("a")
		assert.False(t, cache.Cached("a"))
		_, err = cache.Labels(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("PrimeFirstWriterWins", func(t *testing.T) {
		cache := enum.NewCache(nil)
		got, err := cache.Prime("a", []string{"x", "y"})
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, got)
		got, err = cache.Prime("a", []string{"z"})
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, got)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := enum.NewCache(nil).Labels(context.Background(), "a")
		assert.Error(t, err)

		cache := enum.NewCache(enum.SourceFunc(func(_ context.Context, name string) ([]string, error) {
			return nil, pgcomposite.NewNotFoundError("enum", name)
		}))
		_, err = cache.Labels(context.Background(), "missing")
		assert.True(t, pgcomposite.IsNotFound(err))
		assert.False(t, cache.Cached("missing"))

		_, err = cache.Prime("dup", []string{"a", "a"})
		assert.ErrorContains(t, err, "duplicate label")
	})

	t.Run("Default", func(t *testing.T) {
		t.Cleanup(func() { enum.Init(nil) })
		enum.Init(enum.SourceFunc(func(context.Context, string) ([]string, error) {
			return contentStatus, nil
		}))
		status := enum.Define("content_status")
		v, err := status.New("published")
		require.NoError(t, err)
		assert.Equal(t, 2, v.Index())
		assert.True(t, enum.Default.Cached("content_status"))
		enum.Reset()
		assert.False(t, enum.Default.Cached("content_status"))
	})
}
