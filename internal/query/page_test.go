package query

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	p := NewPage(25, 2, 10)
	assert.Equal(t, Page{Total: 25, Page: 2, Limit: 10, TotalPages: 3, HasNextPage: true, HasPreviousPage: true}, p)

	p = NewPage(0, 1, 10)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNextPage)
	assert.False(t, p.HasPreviousPage)

	p = NewPage(20, 2, 10)
	assert.Equal(t, 2, p.TotalPages)
	assert.False(t, p.HasNextPage)
}

func TestNewPageConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		total := rng.Intn(1000)
		limit := 1 + rng.Intn(MaxLimit)
		page := 1 + rng.Intn(30)
		p := NewPage(total, page, limit)

		assert.GreaterOrEqual(t, p.TotalPages*limit, total)
		if p.TotalPages > 0 {
			assert.Less(t, (p.TotalPages-1)*limit, total)
		}
		assert.Equal(t, page < p.TotalPages, p.HasNextPage)
		assert.Equal(t, page > 1, p.HasPreviousPage)
		if p.HasNextPage {
			assert.Greater(t, total, page*limit, "a next page must hold at least one item")
		}
	}
}
