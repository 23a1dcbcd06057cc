// Package activeset implements §4.7: the set of entities that currently
// hold a Path, switching representation with hysteresis between a dense
// "hot" array (fast iteration, fast sweep-compaction) and a pure bitset
// (fast membership test at any size). No teacher package keeps this exact
// structure, but the hysteretic dual-representation idea and the
// swap-remove/tombstone-then-sweep vocabulary are grounded on the
// teacher's spatial/arena patterns (internal/effects/runtime's spatial
// index, generalized here from "slots in a cell" to "slots in the whole
// set") and on internal/sim/command_buffer.go's append-then-drain shape
// for the hot array's sweep pass.
package activeset

// Id is the small integer domain the set operates over — entity.ID.Index,
// injectively mapped into the set's address space by the caller.
type Id = uint32

// Set is the active-path set.
type Set struct {
	hotCapacity      int
	hysteresisBuffer int
	maxCapacity      Id

	bitset  []uint64
	highest int // highest-ever-set bit index, -1 if none

	hot         []Id // dense slots; a tombstoned slot holds tombstone marker
	hotPresent  bool // whether the set is currently in hot mode
	hotSlotOf   map[Id]int
	count       int
}

const tombstone = ^Id(0)

// New creates an empty set. hotCapacity is the dense-mode ceiling;
// hysteresisBuffer must be strictly less than hotCapacity to avoid
// flapping between modes at the boundary. maxCapacity bounds the ids the
// set will accept.
func New(hotCapacity, hysteresisBuffer int, maxCapacity Id) *Set {
	return &Set{
		hotCapacity:      hotCapacity,
		hysteresisBuffer: hysteresisBuffer,
		maxCapacity:      maxCapacity,
		hotPresent:       true,
		hotSlotOf:        make(map[Id]int),
		highest:          -1,
	}
}

func (s *Set) wordIndex(id Id) (word int, bit uint) {
	return int(id / 64), uint(id % 64)
}

func (s *Set) ensureBitset(id Id) {
	word, _ := s.wordIndex(id)
	for len(s.bitset) <= word {
		s.bitset = append(s.bitset, 0)
	}
}

func (s *Set) setBit(id Id) {
	s.ensureBitset(id)
	word, bit := s.wordIndex(id)
	s.bitset[word] |= 1 << bit
	if int(id) > s.highest {
		s.highest = int(id)
	}
}

func (s *Set) clearBit(id Id) {
	if int(id)/64 >= len(s.bitset) {
		return
	}
	word, bit := s.wordIndex(id)
	s.bitset[word] &^= 1 << bit
}

// Contains is O(1) via the bitset regardless of current mode.
func (s *Set) Contains(id Id) bool {
	word, bit := s.wordIndex(id)
	if word >= len(s.bitset) {
		return false
	}
	return s.bitset[word]&(1<<bit) != 0
}

// Len returns the number of entities currently in the set.
func (s *Set) Len() int { return s.count }

// InHotMode reports whether the set is currently using the dense
// representation.
func (s *Set) InHotMode() bool { return s.hotPresent }

// Include adds id to the set. Returns false if id already present (a
// no-op) or if id exceeds maxCapacity (rejected per §4.7's last
// sentence).
func (s *Set) Include(id Id) bool {
	if id > s.maxCapacity {
		return false
	}
	if s.Contains(id) {
		return false
	}
	s.setBit(id)
	s.count++
	if s.hotPresent {
		s.hot = append(s.hot, id)
		s.hotSlotOf[id] = len(s.hot) - 1
		if s.count >= s.hotCapacity {
			s.migrateToBitsetMode()
		}
	}
	return true
}

// Exclude removes id from the set (a no-op if absent). In hot mode the
// slot is tombstoned, not compacted immediately — callers needing a
// compact prefix should call Sweep.
func (s *Set) Exclude(id Id) {
	if !s.Contains(id) {
		return
	}
	s.clearBit(id)
	s.count--
	if s.hotPresent {
		if idx, ok := s.hotSlotOf[id]; ok {
			s.hot[idx] = tombstone
			delete(s.hotSlotOf, id)
		}
		return
	}
	// Bitset mode: migrate back to hot mode once the count drops far
	// enough below hotCapacity that re-crossing immediately is unlikely
	// (the hysteresis buffer).
	if s.count <= s.hotCapacity-s.hysteresisBuffer {
		s.migrateToHotMode()
	}
}

// ExcludeSwapRemove is the single-eager-removal variant for hot mode: it
// immediately swap-removes id from the dense array instead of leaving a
// tombstone, calling onMove(movedID, newIndex) if another id's slot index
// changed. In bitset mode it behaves exactly like Exclude.
func (s *Set) ExcludeSwapRemove(id Id, onMove func(moved Id, newIndex int)) {
	if !s.Contains(id) {
		return
	}
	if !s.hotPresent {
		s.Exclude(id)
		return
	}
	idx, ok := s.hotSlotOf[id]
	if !ok {
		s.Exclude(id)
		return
	}
	s.clearBit(id)
	s.count--

	last := len(s.hot) - 1
	moved := s.hot[last]
	s.hot[idx] = moved
	s.hot = s.hot[:last]
	delete(s.hotSlotOf, id)
	if moved != tombstone && moved != id {
		s.hotSlotOf[moved] = idx
		if onMove != nil {
			onMove(moved, idx)
		}
	}
}

// Sweep compacts the hot array, removing tombstones, and invokes
// onMove(oldIndex, newIndex) for every entity whose slot changed. After a
// sweep no tombstoned slots remain in the hot array's live prefix.
func (s *Set) Sweep(onMove func(oldIndex, newIndex int)) {
	if !s.hotPresent {
		return
	}
	write := 0
	for read, id := range s.hot {
		if id == tombstone {
			continue
		}
		if write != read {
			s.hot[write] = id
			s.hotSlotOf[id] = write
			if onMove != nil {
				onMove(read, write)
			}
		}
		write++
	}
	s.hot = s.hot[:write]
}

// Iterate calls fn for every entity currently in the set, in hot-array
// order when in hot mode (tombstones skipped) or ascending id order when
// in bitset mode.
func (s *Set) Iterate(fn func(id Id)) {
	if s.hotPresent {
		for _, id := range s.hot {
			if id != tombstone {
				fn(id)
			}
		}
		return
	}
	for i := 0; i <= s.highest; i++ {
		if s.Contains(Id(i)) {
			fn(Id(i))
		}
	}
}

func (s *Set) migrateToBitsetMode() {
	s.hotPresent = false
	s.hot = nil
	s.hotSlotOf = make(map[Id]int)
}

func (s *Set) migrateToHotMode() {
	s.hotPresent = true
	s.hot = make([]Id, 0, s.count)
	s.hotSlotOf = make(map[Id]int, s.count)
	for i := 0; i <= s.highest; i++ {
		if s.Contains(Id(i)) {
			s.hotSlotOf[Id(i)] = len(s.hot)
			s.hot = append(s.hot, Id(i))
		}
	}
}
