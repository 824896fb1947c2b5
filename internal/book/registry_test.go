package book

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"matchcore/internal/common"
)

func TestBooks_GetOrCreateReturnsSameInstance(t *testing.T) {
	books := NewBooks()
	a := books.GetOrCreate(common.TataInr)
	b := books.GetOrCreate(common.TataInr)
	assert.Same(t, a, b)
}

func TestBooks_DifferentMarketsGetDifferentBooks(t *testing.T) {
	books := NewBooks()
	a := books.GetOrCreate(common.TataInr)
	b := books.GetOrCreate(common.JioInr)
	assert.NotSame(t, a, b)
}
