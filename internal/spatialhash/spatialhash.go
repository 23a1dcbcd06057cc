// Package spatialhash implements the staggered multi-resolution spatial
// hash used for every proximity query in the simulation: collision
// candidates, boids neighbor search, and obstacle avoidance. Entity radii
// span two orders of magnitude, so a single cell size either wastes cells
// on small units or forces large obstacles to occupy thousands of them;
// instead entities are bucketed into size classes, and each class keeps two
// half-cell-offset grids so a query of any radius never needs more than a
// 2x2 neighborhood per grid.
//
// The per-cell storage is grounded on the teacher's effect spatial index
// (formerly internal/effects/runtime/spatial_index.go: a cell-keyed map of
// entity ids with capacity-checked inserts) and on the other_examples grid
// query pattern (map[GridKey][]*Obstacle, dedup via a seen-set on radius
// queries) — generalized here into two offset grids per size class with
// arena-backed cells and swap-remove, since the teacher's version rebuilds
// its per-cell slice on every mutation rather than supporting O(1) removal.
package spatialhash

import (
	"log"

	"strategycore/server/internal/fixedmath"
)

// EntityID is the opaque identifier the spatial hash stores; it carries no
// meaning of its own, so the caller may hand in whatever stable handle its
// entity storage uses (see internal/sim's entity table).
type EntityID uint32

// OccupiedCell is the back-reference an entity's component carries so the
// hash and the entity can stay consistent across swap-remove moves: the
// entity is present at exactly this (class, grid, col, row, index).
type OccupiedCell struct {
	Class int
	Grid  int // 0 = grid A, 1 = grid B
	Col   int
	Row   int
	Index int
	valid bool
}

// Valid reports whether the handle refers to a live slot.
func (o OccupiedCell) Valid() bool { return o.valid }

// Config describes the size classes: EntityRadii holds one radius per
// class, and each class's cell size is that radius times RadiusToCellRatio.
// Classes must be supplied in ascending radius order; an entity goes into
// the first class whose cell size is at least its radius, or into the last
// (largest) class if its radius exceeds every cell size.
type Config struct {
	EntityRadii      []fixedmath.Fixed
	RadiusToCellRatio fixedmath.Fixed
	OvercapacityRatio fixedmath.Fixed
	MaxEntityCount    int
}

// Hash is the complete staggered multi-resolution spatial index.
type Hash struct {
	classes           []sizeClass
	overcapacityRatio fixedmath.Fixed
	maxEntities        int

	positions map[EntityID]fixedmath.Fixed2
	radii     map[EntityID]fixedmath.Fixed
	occupied  map[EntityID]OccupiedCell
}

// New builds an empty hash from the given configuration.
func New(cfg Config) *Hash {
	ratio := cfg.RadiusToCellRatio
	if ratio == 0 {
		ratio = fixedmath.FromInt(4)
	}
	over := cfg.OvercapacityRatio
	if over == 0 {
		over = fixedmath.FromFloat64(1.5)
	}
	h := &Hash{
		overcapacityRatio: over,
		maxEntities:       cfg.MaxEntityCount,
		positions:         make(map[EntityID]fixedmath.Fixed2),
		radii:             make(map[EntityID]fixedmath.Fixed),
		occupied:          make(map[EntityID]OccupiedCell),
	}
	radii := cfg.EntityRadii
	if len(radii) == 0 {
		radii = []fixedmath.Fixed{fixedmath.FromInt(1)}
	}
	for _, r := range radii {
		h.classes = append(h.classes, newSizeClass(r.Mul(ratio)))
	}
	return h
}

// classify returns the index of the size class that should store an entity
// of the given radius: the smallest configured class whose cell comfortably
// covers it, or the largest class if the entity exceeds them all.
func (h *Hash) classify(radius fixedmath.Fixed) int {
	for i, sc := range h.classes {
		if radius <= sc.cellSize {
			return i
		}
	}
	return len(h.classes) - 1
}

// Insert places a new entity in the hash and returns its occupied-cell
// handle.
func (h *Hash) Insert(id EntityID, pos fixedmath.Fixed2, radius fixedmath.Fixed) OccupiedCell {
	class := h.classify(radius)
	occ := h.classes[class].insert(id, pos, class)
	h.positions[id] = pos
	h.radii[id] = radius
	h.occupied[id] = occ
	return occ
}

// Remove deletes an entity from the hash via swap-remove. If another entity
// occupied the last slot in the same cell, its OccupiedCell is patched to
// the freed index automatically — callers never need to chase the swap
// themselves.
func (h *Hash) Remove(id EntityID) {
	occ, ok := h.occupied[id]
	if !ok {
		return
	}
	moved, hadSwap := h.classes[occ.Class].removeSwap(occ)
	if hadSwap {
		movedOcc := h.occupied[moved]
		movedOcc.Index = occ.Index
		h.occupied[moved] = movedOcc
	}
	delete(h.occupied, id)
	delete(h.positions, id)
	delete(h.radii, id)
}

// Update repositions an entity, moving it between cells (and, if its
// classified size class changed, between size classes) when necessary.
func (h *Hash) Update(id EntityID, pos fixedmath.Fixed2) {
	occ, ok := h.occupied[id]
	if !ok {
		return
	}
	radius := h.radii[id]
	class := h.classify(radius)
	grid, col, row := h.classes[class].locate(pos)

	if class == occ.Class && grid == occ.Grid && col == occ.Col && row == occ.Row {
		h.positions[id] = pos
		return
	}

	h.Remove(id)
	newOcc := h.classes[class].insert(id, pos, class)
	h.positions[id] = pos
	h.radii[id] = radius
	h.occupied[id] = newOcc
}

// Rebuild redistributes every live entity into freshly sized cells with
// proportional headroom, producing a compact arena. It runs only when a
// caller invokes it; the hash does not track fragmentation itself.
func (h *Hash) Rebuild() {
	type entry struct {
		id     EntityID
		pos    fixedmath.Fixed2
		radius fixedmath.Fixed
	}
	entries := make([]entry, 0, len(h.positions))
	for id, pos := range h.positions {
		entries = append(entries, entry{id: id, pos: pos, radius: h.radii[id]})
	}
	for i := range h.classes {
		h.classes[i].clear()
	}
	h.occupied = make(map[EntityID]OccupiedCell, len(entries))
	for _, e := range entries {
		class := h.classify(e.radius)
		h.occupied[e.id] = h.classes[class].insert(e.id, e.pos, class)
	}
}

func warnOverflow(format string, args ...any) {
	log.Printf(format, args...)
}
