package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjFunction_StringsScriptVsNamed(t *testing.T) {
	script := &ObjFunction{Chunk: NewChunk()}
	assert.Equal(t, "<script>", script.String())

	named := &ObjFunction{Chunk: NewChunk(), Name: &ObjString{Chars: "add"}}
	assert.Equal(t, "<fn add>", named.String())
}

func TestObjUpvalue_OpenVsClosed(t *testing.T) {
	slot := Number(5)
	up := &ObjUpvalue{Location: &slot}
	assert.True(t, up.IsOpen())

	up.Closed = slot
	up.Location = &up.Closed
	assert.False(t, up.IsOpen())
}

func TestObjInstance_String(t *testing.T) {
	class := &ObjClass{Name: &ObjString{Chars: "Pair"}, Methods: NewTable()}
	instance := &ObjInstance{Class: class, Fields: NewTable()}
	assert.Equal(t, "Pair instance", instance.String())
}

func TestObjClosure_StringDelegatesToFunction(t *testing.T) {
	fn := &ObjFunction{Chunk: NewChunk(), Name: &ObjString{Chars: "f"}}
	closure := &ObjClosure{Function: fn}
	assert.Equal(t, "<fn f>", closure.String())
}

func TestHashString_IsDeterministic(t *testing.T) {
	assert.Equal(t, HashString("hello"), HashString("hello"))
	assert.NotEqual(t, HashString("hello"), HashString("world"))
}

func TestHeader_MarkAndLink(t *testing.T) {
	a := &ObjString{Chars: "a"}
	b := &ObjString{Chars: "b"}
	a.Hdr().Next = b

	assert.False(t, a.Hdr().Marked)
	a.Hdr().Marked = true
	assert.True(t, a.Hdr().Marked)
	assert.Same(t, b, a.Hdr().Next)
}
