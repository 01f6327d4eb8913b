package collection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/recordshop/pkg/collection"
)

type line struct {
	id  int
	qty int
	p   float64
}

func TestHelpers(t *testing.T) {
	lines := []line{{1, 2, 1.5}, {2, 0, 9}, {3, 1, 4}}

	assert.Equal(t, []int{1, 2, 3}, collection.Map(lines, func(l line) int { return l.id }))
	assert.Equal(t, []line{{1, 2, 1.5}, {3, 1, 4}}, collection.Filter(lines, func(l line) bool { return l.qty > 0 }))
	assert.NotNil(t, collection.Filter(lines, func(line) bool { return false }))
	assert.Equal(t, 2, collection.IndexOf(lines, func(l line) bool { return l.id == 3 }))
	assert.Equal(t, -1, collection.IndexOf(lines, func(l line) bool { return l.id == 9 }))
	assert.Equal(t, 3, collection.Sum(lines, func(l line) int { return l.qty }))
	assert.Equal(t, 7.0, collection.Sum(lines, func(l line) float64 { return l.p * float64(l.qty) }))
	assert.Equal(t, line{2, 0, 9}, collection.KeyBy(lines, func(l line) int { return l.id })[2])
}
