package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	r := New[string]()
	id := r.Set("b", "bee")
	r.Set("a", "ay")

	v, ok := r.Get("b")
	require.True(t, ok)
	assert.Equal(t, "bee", *v)

	resolved, ok := r.Resolve(id)
	require.True(t, ok)
	assert.Equal(t, "bee", *resolved)
	assert.Equal(t, "b", r.Name(id))

	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Equal(t, 2, r.Len())
}

func TestReplaceInvalidatesHandle(t *testing.T) {
	r := New[int]()
	old := r.Set("x", 1)
	fresh := r.Set("x", 2)

	_, ok := r.Resolve(old)
	assert.False(t, ok, "stale handle must not resolve")
	assert.Equal(t, "", r.Name(old))

	v, ok := r.Resolve(fresh)
	require.True(t, ok)
	assert.Equal(t, 2, *v)
	assert.Equal(t, 1, r.Len())
}

func TestDeleteAndClear(t *testing.T) {
	r := New[int]()
	id := r.Set("x", 1)
	r.Set("y", 2)

	assert.True(t, r.Delete("x"))
	assert.False(t, r.Delete("x"))
	_, ok := r.Resolve(id)
	assert.False(t, ok)

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Names())

	again := r.Set("x", 3)
	v, ok := r.Resolve(again)
	require.True(t, ok)
	assert.Equal(t, 3, *v)
}

func TestZeroAndForeignIDs(t *testing.T) {
	r := New[int]()
	r.Set("x", 1)

	_, ok := r.Resolve(ID{})
	assert.False(t, ok)

	other := New[int]()
	other.Set("a", 1)
	other.Set("b", 2)
	foreign, _ := other.Lookup("b")
	_, ok = r.Resolve(foreign)
	assert.False(t, ok)
}

func TestAllIteratesInNameOrder(t *testing.T) {
	r := New[int]()
	r.Set("c", 3)
	r.Set("a", 1)
	r.Set("b", 2)

	var names []string
	var values []int
	for name, v := range r.All() {
		names = append(names, name)
		values = append(values, *v)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
	assert.Equal(t, []int{1, 2, 3}, values)

	ids := r.IDs()
	require.Len(t, ids, 3)
	assert.Equal(t, "a", r.Name(ids[0]))
}
