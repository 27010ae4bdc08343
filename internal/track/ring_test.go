package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRing_PushAndWrap(t *testing.T) {
	r := NewRing[int](3)
	assert.Nil(t, r.Values())
	_, ok := r.Last()
	assert.False(t, ok)

	r.Push(1)
	r.Push(2)
	assert.Equal(t, []int{1, 2}, r.Values())

	r.Push(3)
	r.Push(4)
	assert.Equal(t, []int{2, 3, 4}, r.Values())
	assert.Equal(t, []int{4, 3, 2}, r.Newest())
	assert.Equal(t, 3, r.Len())

	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, 4, last)
}

func TestRing_ValuesIsACopy(t *testing.T) {
	r := NewRing[int](2)
	r.Push(1)
	vals := r.Values()
	vals[0] = 99

	assert.Equal(t, []int{1}, r.Values())
}

func TestRing_Clear(t *testing.T) {
	r := NewRing[string](2)
	r.Push("a")
	r.Push("b")
	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Values())

	r.Push("c")
	assert.Equal(t, []string{"c"}, r.Values())
}

func TestRing_MinimumCapacity(t *testing.T) {
	r := NewRing[int](0)
	r.Push(1)
	r.Push(2)
	assert.Equal(t, 1, r.Cap())
	assert.Equal(t, []int{2}, r.Values())
}
