package bytecode

// tableMaxLoad is the load factor ceiling (including tombstones) before a
// Table grows. Capacity is always a power of two.
const tableMaxLoad = 0.75

type entry struct {
	key   *ObjString // nil means empty, or a tombstone when value.Bool is true
	value Value
}

// Table is an open-addressing hash table with linear probing, keyed by
// interned-string identity. It backs globals, instance fields, class
// method maps, and the VM's own string-interning set.
//
// Deletions leave a tombstone (key=nil, value=Bool(true)) so probe chains
// for later keys stay intact; tombstones count toward the load factor so
// probe length remains bounded, and Set reuses the first tombstone seen
// during a probe. FindString probes past tombstones without reusing them.
type Table struct {
	count   int // live entries + tombstones
	entries []entry
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{}
}

// Get returns the value stored for key, if any.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return Value{}, false
	}
	e := t.find(key)
	if e.key == nil {
		return Value{}, false
	}
	return e.value, true
}

// Set stores value for key, growing the table first if needed. It reports
// whether key was absent before (true also when its slot reuses a
// tombstone), as opposed to overwriting an existing key.
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow(growCapacity(len(t.entries)))
	}

	e := t.find(key)
	isNewKey := e.key == nil
	if isNewKey && e.value.IsNil() {
		// Not reusing a tombstone (tombstones carry Bool(true)).
		t.count++
	}
	e.key = key
	e.value = value
	return isNewKey
}

// Delete removes key, leaving a tombstone behind so later probes still find
// keys that collided with it. Reports whether key was present.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.find(key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = Bool(true) // tombstone marker
	return true
}

// FindString looks up an entry by raw bytes and precomputed hash without
// requiring an already-interned *ObjString. It is used only by the VM's
// interning table: comparing bytes directly when hashes match lets the VM
// decide whether a freshly scanned string already exists in the heap.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	index := hash & mask
	for {
		e := &t.entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				return nil // truly empty: not found
			}
			// tombstone: keep probing
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		index = (index + 1) & mask
	}
}

// AddAll copies every live entry of src into t, overwriting existing keys.
// Used by OP_INHERIT to bulk-copy a superclass's method table.
func (t *Table) AddAll(src *Table) {
	for _, e := range src.entries {
		if e.key != nil {
			t.Set(e.key, e.value)
		}
	}
}

// Each calls fn for every live key/value pair, for GC root marking and for
// host inspection. Iteration order is unspecified.
func (t *Table) Each(fn func(key *ObjString, value Value)) {
	for _, e := range t.entries {
		if e.key != nil {
			fn(e.key, e.value)
		}
	}
}

// Len reports the number of live (non-tombstone) entries.
func (t *Table) Len() int {
	n := 0
	for _, e := range t.entries {
		if e.key != nil {
			n++
		}
	}
	return n
}

func (t *Table) find(key *ObjString) *entry {
	mask := uint32(len(t.entries) - 1)
	index := key.Hash & mask
	var tombstone *entry
	for {
		e := &t.entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) & mask
	}
}

func (t *Table) grow(capacity int) {
	newEntries := make([]entry, capacity)
	old := t.entries
	t.entries = newEntries
	t.count = 0
	for _, e := range old {
		if e.key == nil {
			continue
		}
		dst := t.find(e.key)
		dst.key = e.key
		dst.value = e.value
		t.count++
	}
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}
