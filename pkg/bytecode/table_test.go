package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInternedString(s string) *ObjString {
	return &ObjString{Chars: s, Hash: HashString(s)}
}

func TestTable_SetGetDelete(t *testing.T) {
	tab := NewTable()
	key := newInternedString("x")

	isNew := tab.Set(key, Number(1))
	assert.True(t, isNew)

	v, ok := tab.Get(key)
	require.True(t, ok)
	assert.Equal(t, Number(1), v)

	isNew = tab.Set(key, Number(2))
	assert.False(t, isNew, "overwriting an existing key is not a new insertion")

	v, ok = tab.Get(key)
	require.True(t, ok)
	assert.Equal(t, Number(2), v)

	assert.True(t, tab.Delete(key))
	_, ok = tab.Get(key)
	assert.False(t, ok)
}

func TestTable_TombstoneKeepsProbeChainIntact(t *testing.T) {
	tab := NewTable()
	// "a" and "i" hash to the same slot of the initial 8-entry table, so
	// "i" sits one probe step past "a".
	a := newInternedString("a")
	b := newInternedString("i")

	tab.Set(a, Number(1))
	tab.Set(b, Number(2))
	tab.Delete(a)

	v, ok := tab.Get(b)
	require.True(t, ok)
	assert.Equal(t, Number(2), v)
}

func TestTable_FindStringComparesBytesOnHashMatch(t *testing.T) {
	tab := NewTable()
	s := newInternedString("hello")
	tab.Set(s, Nil)

	found := tab.FindString("hello", HashString("hello"))
	assert.Same(t, s, found)

	assert.Nil(t, tab.FindString("goodbye", HashString("goodbye")))
}

func TestTable_AddAllCopiesEntries(t *testing.T) {
	src := NewTable()
	dst := NewTable()

	m := newInternedString("m")
	src.Set(m, Number(1))
	dst.AddAll(src)

	v, ok := dst.Get(m)
	require.True(t, ok)
	assert.Equal(t, Number(1), v)
}

func TestTable_AddAllOverridesExistingKeys(t *testing.T) {
	src := NewTable()
	dst := NewTable()

	m := newInternedString("m")
	dst.Set(m, Number(99))
	src.Set(m, Number(1))
	dst.AddAll(src)

	v, _ := dst.Get(m)
	assert.Equal(t, Number(1), v, "subclass copy of a superclass method table keeps the superclass version until overwritten locally")
}

func TestTable_GrowsAndSurvivesManyEntries(t *testing.T) {
	tab := NewTable()
	keys := make([]*ObjString, 200)
	for i := range keys {
		s := newInternedString(string(rune('a')) + string(rune(i)))
		keys[i] = s
		tab.Set(s, Number(float64(i)))
	}
	for i, k := range keys {
		v, ok := tab.Get(k)
		require.True(t, ok)
		assert.Equal(t, Number(float64(i)), v)
	}
}

func TestTable_Each(t *testing.T) {
	tab := NewTable()
	tab.Set(newInternedString("a"), Number(1))
	tab.Set(newInternedString("b"), Number(2))

	seen := map[string]float64{}
	tab.Each(func(key *ObjString, value Value) {
		seen[key.Chars] = value.Number
	})
	assert.Equal(t, map[string]float64{"a": 1, "b": 2}, seen)
}
