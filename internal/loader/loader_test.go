package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFetch struct {
	mu      sync.Mutex
	batches [][]int
	fail    error
}

func (r *recordingFetch) fetch(_ context.Context, keys []int) (map[int]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, append([]int(nil), keys...))
	if r.fail != nil {
		return nil, r.fail
	}
	out := make(map[int]string, len(keys))
	for _, k := range keys {
		if k < 0 {
			continue
		}
		out[k] = fmt.Sprintf("v%d", k)
	}
	return out, nil
}

func TestLoadCoalescesAndDeduplicates(t *testing.T) {
	rec := &recordingFetch{}
	l := New("test", rec.fetch, nil)
	ctx := context.Background()

	requested := []int{1, 2, 1, 3, 2, 1}
	thunks := make([]Thunk[string], len(requested))
	for i, k := range requested {
		thunks[i] = l.Load(ctx, k)
	}
	for i, th := range thunks {
		v, err := th()
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("v%d", requested[i]), v)
	}

	require.Len(t, rec.batches, 1)
	assert.Equal(t, []int{1, 2, 3}, rec.batches[0])
}

func TestConcurrentThunksShareOneFetch(t *testing.T) {
	rec := &recordingFetch{}
	l := New("test", rec.fetch, nil)
	ctx := context.Background()

	const n = 50
	thunks := make([]Thunk[string], n)
	for i := 0; i < n; i++ {
		thunks[i] = l.Load(ctx, i%7)
	}

	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := thunks[i]()
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	require.Len(t, rec.batches, 1)
	got := append([]int(nil), rec.batches[0]...)
	sort.Ints(got)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, got)
	for i, v := range results {
		assert.Equal(t, fmt.Sprintf("v%d", i%7), v)
	}
}

func TestResolvedKeysAreCached(t *testing.T) {
	rec := &recordingFetch{}
	l := New("test", rec.fetch, nil)
	ctx := context.Background()

	v, err := l.Load(ctx, 4)()
	require.NoError(t, err)
	assert.Equal(t, "v4", v)

	a := l.Load(ctx, 4)
	b := l.Load(ctx, 5)
	va, err := a()
	require.NoError(t, err)
	vb, err := b()
	require.NoError(t, err)
	assert.Equal(t, "v4", va)
	assert.Equal(t, "v5", vb)

	require.Len(t, rec.batches, 2)
	assert.Equal(t, []int{5}, rec.batches[1], "cached key must not be fetched again")
}

func TestMissingKeyResolvesToZero(t *testing.T) {
	rec := &recordingFetch{}
	l := New("test", rec.fetch, nil)

	v, err := l.Load(context.Background(), -1)()
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestFetchErrorReachesEveryWaiterAndIsNotCached(t *testing.T) {
	boom := errors.New("storage down")
	rec := &recordingFetch{fail: boom}
	l := New("test", rec.fetch, nil)
	ctx := context.Background()

	a := l.Load(ctx, 1)
	b := l.Load(ctx, 1)
	c := l.Load(ctx, 2)
	for _, th := range []Thunk[string]{a, b, c} {
		_, err := th()
		assert.ErrorIs(t, err, boom)
	}
	require.Len(t, rec.batches, 1)

	rec.mu.Lock()
	rec.fail = nil
	rec.mu.Unlock()

	v, err := l.Load(ctx, 1)()
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
	assert.Len(t, rec.batches, 2)
}

func TestLoadMany(t *testing.T) {
	rec := &recordingFetch{}
	l := New("test", rec.fetch, nil)

	vs, err := l.LoadMany(context.Background(), []int{3, 1, 3})()
	require.NoError(t, err)
	assert.Equal(t, []string{"v3", "v1", "v3"}, vs)
	assert.Len(t, rec.batches, 1)
}

func TestObserverSeesBatchSize(t *testing.T) {
	rec := &recordingFetch{}
	var sizes []int
	l := New("widgets", rec.fetch, func(name string, keys int, err error) {
		assert.Equal(t, "widgets", name)
		assert.NoError(t, err)
		sizes = append(sizes, keys)
	})
	ctx := context.Background()
	t1 := l.Load(ctx, 1)
	l.Load(ctx, 2)
	l.Load(ctx, 1)
	_, _ = t1()
	assert.Equal(t, []int{2}, sizes)
}
