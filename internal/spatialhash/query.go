package spatialhash

import "strategycore/server/internal/fixedmath"

// QueryBuffer is a preallocated, reusable result buffer. Steering and
// collision both run a neighbor query every tick for every agent; reusing
// one buffer per worker avoids an allocation per query while the seen-set
// guarantees an entity present in both staggered grids' candidate cells is
// reported only once (grounded on the other_examples grid query's
// seen-map dedup pattern).
type QueryBuffer struct {
	Results  []EntityID
	capacity int
	seen     map[EntityID]struct{}
	overflow int
}

// NewQueryBuffer allocates a buffer that reports at most capacity results
// per query.
func NewQueryBuffer(capacity int) *QueryBuffer {
	return &QueryBuffer{
		capacity: capacity,
		Results:  make([]EntityID, 0, capacity),
		seen:     make(map[EntityID]struct{}, capacity),
	}
}

// Reset clears the buffer for reuse without reallocating its backing
// storage.
func (b *QueryBuffer) Reset() {
	b.Results = b.Results[:0]
	for k := range b.seen {
		delete(b.seen, k)
	}
	b.overflow = 0
}

// Overflow reports how many additional (deduplicated) candidates could not
// fit once the buffer reached capacity during the last query.
func (b *QueryBuffer) Overflow() int { return b.overflow }

func (b *QueryBuffer) tryAdd(id EntityID) {
	if _, ok := b.seen[id]; ok {
		return
	}
	if len(b.Results) >= b.capacity {
		b.overflow++
		return
	}
	b.seen[id] = struct{}{}
	b.Results = append(b.Results, id)
}

// Debug controls whether a query-buffer overflow panics (useful in tests
// and development builds) or only logs a warning (the default, matching
// the "warning + automatic recovery" recovery strategy from the errors
// table).
var Debug = false

// Query gathers every entity within radius of pos across all size classes
// and both staggered grids of each, deduplicating into buf. exclude, if
// nonzero, is skipped (used by neighbor searches to omit the querying
// entity itself).
func (h *Hash) Query(pos fixedmath.Fixed2, radius fixedmath.Fixed, exclude EntityID, buf *QueryBuffer) {
	buf.Reset()
	minPos := fixedmath.Fixed2{X: pos.X - radius, Y: pos.Y - radius}
	maxPos := fixedmath.Fixed2{X: pos.X + radius, Y: pos.Y + radius}

	for _, sc := range h.classes {
		scanGrid(&sc.a, minPos, maxPos, exclude, buf)
		scanGrid(&sc.b, minPos, maxPos, exclude, buf)
	}

	if buf.overflow > 0 {
		if Debug {
			panic("spatialhash: query buffer overflow")
		}
		warnOverflow("spatialhash: query at (%s) dropped %d candidates past buffer capacity", pos.String(), buf.overflow)
	}
}

func scanGrid(g *gridData, minPos, maxPos fixedmath.Fixed2, exclude EntityID, buf *QueryBuffer) {
	minCol, minRow, _ := g.cellOf(minPos)
	maxCol, maxRow, _ := g.cellOf(maxPos)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			r, ok := g.cells[cellKey{Col: col, Row: row}]
			if !ok {
				continue
			}
			for i := 0; i < r.Length; i++ {
				id := g.storage[r.Offset+i]
				if exclude != 0 && id == exclude {
					continue
				}
				buf.tryAdd(id)
			}
		}
	}
}
