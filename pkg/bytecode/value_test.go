package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_Truthiness(t *testing.T) {
	assert.True(t, Nil.IsFalsy())
	assert.True(t, Bool(false).IsFalsy())
	assert.False(t, Bool(true).IsFalsy())
	assert.False(t, Number(0).IsFalsy(), "0 is truthy")
	assert.False(t, FromObj(&ObjString{Chars: ""}).IsFalsy(), "empty string is truthy")
}

func TestValue_EqualAcrossVariants(t *testing.T) {
	assert.True(t, Equal(Nil, Nil))
	assert.False(t, Equal(Nil, Bool(false)))
	assert.True(t, Equal(Number(1), Number(1)))
	assert.False(t, Equal(Number(1), Number(2)))
	assert.True(t, Equal(Bool(true), Bool(true)))
}

func TestValue_StringIdentityEquality(t *testing.T) {
	a := &ObjString{Chars: "hi"}
	b := &ObjString{Chars: "hi"}

	assert.True(t, Equal(FromObj(a), FromObj(a)))
	assert.False(t, Equal(FromObj(a), FromObj(b)), "distinct objects with equal bytes are not equal unless interned to the same object")
}

func TestValue_StringFormatting(t *testing.T) {
	assert.Equal(t, "nil", Nil.String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "3", Number(3).String())
	assert.Equal(t, "3.5", Number(3.5).String())
}
