package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGC_StringsAreInternedByIdentity(t *testing.T) {
	machine := New()
	a := machine.InternString("hello")
	b := machine.InternString("hello")
	assert.Same(t, a, b)
}

func TestGC_StressModeDoesNotCorruptExecution(t *testing.T) {
	var out bytes.Buffer
	machine := New(WithStdout(&out), WithStressGC())

	_, err := machine.Interpret(`
		class Node {
			init(value) {
				this.value = value;
				this.next = nil;
			}
		}

		fun buildList(n) {
			var head = nil;
			var i = 0;
			while (i < n) {
				var node = Node(i);
				node.next = head;
				head = node;
				i = i + 1;
			}
			return head;
		}

		fun sum(node) {
			var total = 0;
			while (node != nil) {
				total = total + node.value;
				node = node.next;
			}
			return total;
		}

		print sum(buildList(50));
	`)
	require.NoError(t, err)
	assert.Equal(t, "1225\n", out.String())
}

func TestGC_ClosuresSurviveCollectionPressure(t *testing.T) {
	var out bytes.Buffer
	machine := New(WithStdout(&out), WithStressGC())

	_, err := machine.Interpret(`
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}

		var counters = makeCounter();
		var i = 0;
		while (i < 20) {
			counters();
			i = i + 1;
		}
		print counters();
	`)
	require.NoError(t, err)
	assert.Equal(t, "21\n", out.String())
}

func TestGC_FreeReleasesEveryObject(t *testing.T) {
	machine := New()
	_, err := machine.Interpret(`var s = "keep" + "me"; fun f() {} var g = f;`)
	require.NoError(t, err)
	require.NotNil(t, machine.objects)

	machine.Free()
	assert.Nil(t, machine.objects)
	assert.Zero(t, machine.stackTop)
	assert.Zero(t, machine.frameCount)
}

func TestGC_GlobalsSurviveCollection(t *testing.T) {
	machine := New(WithStressGC())
	_, err := machine.Interpret(`var kept = "still here";`)
	require.NoError(t, err)

	v, ok := machine.globals.Get(machine.InternString("kept"))
	require.True(t, ok)
	assert.Equal(t, "still here", v.String())
}
