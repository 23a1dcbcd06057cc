package spatialhash

import "strategycore/server/internal/fixedmath"

// cellKey addresses one cell within a single grid.
type cellKey struct {
	Col, Row int
}

// arenaRange is the contiguous slice of storage[] an occupied cell owns.
// Capacity never exceeds the distance to the next cell's offset, so cells
// never alias; an insert that would outgrow its capacity instead triggers a
// rebuild of the whole grid with fresh headroom (see errors table, spec §7:
// "index overflow on spatial-hash cell" -> full rebuild with larger arena).
type arenaRange struct {
	Offset   int
	Length   int
	Capacity int
}

// gridData is one of the two half-cell-offset grids belonging to a size
// class. offset is added to every coordinate before bucketing, so grid B
// (offset = cellSize/2) buckets entities a half-cell away from grid A.
type gridData struct {
	cellSize fixedmath.Fixed
	offset   fixedmath.Fixed
	cells    map[cellKey]*arenaRange
	storage  []EntityID
}

func newGridData(cellSize, offset fixedmath.Fixed) gridData {
	return gridData{
		cellSize: cellSize,
		offset:   offset,
		cells:    make(map[cellKey]*arenaRange),
	}
}

// cellOf buckets a world position into this grid's (col, row) and returns
// the world-space center of that cell, used to compare staggering fit.
func (g *gridData) cellOf(pos fixedmath.Fixed2) (col, row int, center fixedmath.Fixed2) {
	rel := pos.Sub(fixedmath.Fixed2{X: g.offset, Y: g.offset})
	col = floorDiv(rel.X, g.cellSize)
	row = floorDiv(rel.Y, g.cellSize)
	half := g.cellSize.DivInt(2)
	center = fixedmath.Fixed2{
		X: g.offset + g.cellSize.MulInt(col) + half,
		Y: g.offset + g.cellSize.MulInt(row) + half,
	}
	return col, row, center
}

func floorDiv(a, b fixedmath.Fixed) int {
	q := a.ToFloat64() / b.ToFloat64()
	i := int(q)
	if q < 0 && float64(i) != q {
		i--
	}
	return i
}

// reserve returns a writable slot index at the end of the named cell's
// range, growing the arena (by rebuilding the whole grid, see insertAt) if
// the cell is new or already at capacity.
func (g *gridData) reserve(key cellKey, overcapacity fixedmath.Fixed) int {
	r, ok := g.cells[key]
	if ok && r.Length < r.Capacity {
		idx := r.Offset + r.Length
		r.Length++
		return idx
	}
	g.growCell(key, overcapacity)
	r = g.cells[key]
	idx := r.Offset + r.Length
	r.Length++
	return idx
}

// growCell reallocates the grid's storage arena, giving every existing cell
// proportional headroom plus at least one extra slot for the named cell.
// This is the "full rebuild with larger arena" recovery from a capacity
// overflow.
func (g *gridData) growCell(key cellKey, overcapacity fixedmath.Fixed) {
	type snapshot struct {
		key     cellKey
		entries []EntityID
	}
	snapshots := make([]snapshot, 0, len(g.cells)+1)
	found := false
	for k, r := range g.cells {
		entries := append([]EntityID(nil), g.storage[r.Offset:r.Offset+r.Length]...)
		if k == key {
			found = true
		}
		snapshots = append(snapshots, snapshot{key: k, entries: entries})
	}
	if !found {
		snapshots = append(snapshots, snapshot{key: key})
	}

	newStorage := make([]EntityID, 0, len(g.storage)+8)
	newCells := make(map[cellKey]*arenaRange, len(snapshots))
	for _, s := range snapshots {
		length := len(s.entries)
		capacity := length + 1
		if overcapacity > 0 {
			if scaled := int(overcapacity.MulInt(length).ToFloat64()); scaled > capacity {
				capacity = scaled
			}
		}
		offset := len(newStorage)
		newStorage = append(newStorage, s.entries...)
		for i := length; i < capacity; i++ {
			newStorage = append(newStorage, 0)
		}
		newCells[s.key] = &arenaRange{Offset: offset, Length: length, Capacity: capacity}
	}
	g.storage = newStorage
	g.cells = newCells
}

func (g *gridData) clear() {
	g.cells = make(map[cellKey]*arenaRange)
	g.storage = nil
}

// sizeClass owns the two staggered grids (A at zero offset, B at a
// half-cell offset) for one entity-radius bucket.
type sizeClass struct {
	cellSize fixedmath.Fixed
	a, b     gridData
}

func newSizeClass(cellSize fixedmath.Fixed) sizeClass {
	return sizeClass{
		cellSize: cellSize,
		a:        newGridData(cellSize, 0),
		b:        newGridData(cellSize, cellSize.DivInt(2)),
	}
}

func (sc *sizeClass) clear() {
	sc.a.clear()
	sc.b.clear()
}

// locate picks whichever of the two staggered grids centers the entity
// more squarely in its bucket, and returns that grid's index (0=A, 1=B)
// along with the chosen cell coordinates.
func (sc *sizeClass) locate(pos fixedmath.Fixed2) (grid, col, row int) {
	colA, rowA, centerA := sc.a.cellOf(pos)
	colB, rowB, centerB := sc.b.cellOf(pos)
	if pos.DistanceSquared(centerA) <= pos.DistanceSquared(centerB) {
		return 0, colA, rowA
	}
	return 1, colB, rowB
}

func (sc *sizeClass) gridFor(index int) *gridData {
	if index == 0 {
		return &sc.a
	}
	return &sc.b
}

func (sc *sizeClass) insert(id EntityID, pos fixedmath.Fixed2, class int) OccupiedCell {
	gridIdx, col, row := sc.locate(pos)
	g := sc.gridFor(gridIdx)
	key := cellKey{Col: col, Row: row}
	idx := g.reserve(key, fixedmath.FromFloat64(1.5))
	g.storage[idx] = id
	return OccupiedCell{Class: class, Grid: gridIdx, Col: col, Row: row, Index: idx - g.cells[key].Offset, valid: true}
}

// removeSwap deletes the entity at occ via swap-remove within its arena
// range, returning the entity that was moved into the freed slot (if any)
// and whether a swap actually happened.
func (sc *sizeClass) removeSwap(occ OccupiedCell) (moved EntityID, hadSwap bool) {
	g := sc.gridFor(occ.Grid)
	key := cellKey{Col: occ.Col, Row: occ.Row}
	r := g.cells[key]
	if r == nil || r.Length == 0 {
		return 0, false
	}
	lastIdx := r.Offset + r.Length - 1
	removedIdx := r.Offset + occ.Index
	moved = g.storage[lastIdx]
	hadSwap = removedIdx != lastIdx
	if hadSwap {
		g.storage[removedIdx] = moved
	}
	r.Length--
	return moved, hadSwap
}
