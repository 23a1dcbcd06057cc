package hgraph

import (
	"log"

	"strategycore/server/internal/fixedmath"
	"strategycore/server/internal/gridfield"
)

type rowStrip struct {
	minCol, maxCol int
}

// rowStrips returns the maximal horizontal runs of walkable cells in one
// cluster-relative row.
func rowStrips(grid *gridfield.Grid, bounds Rect, relRow int) []rowStrip {
	var strips []rowStrip
	inStrip := false
	start := 0
	width := bounds.Width()
	for col := 0; col < width; col++ {
		walkable := grid.Walkable(bounds.MinCol+col, bounds.MinRow+relRow)
		switch {
		case walkable && !inStrip:
			inStrip = true
			start = col
		case !walkable && inStrip:
			inStrip = false
			strips = append(strips, rowStrip{minCol: start, maxCol: col - 1})
		}
	}
	if inStrip {
		strips = append(strips, rowStrip{minCol: start, maxCol: width - 1})
	}
	return strips
}

type openRect struct {
	minCol, maxCol, minRow int
}

// decomposeRegions produces the convex rectangular regions covering a
// cluster's walkable cells: maximal horizontal strips per row, merged
// vertically when two stacked strips share the exact same column range.
// Region coordinates are stored relative to the cluster's own bounds.
func decomposeRegions(grid *gridfield.Grid, cluster *Cluster) {
	height := cluster.Bounds.Height()
	var open []openRect
	var finished []Rect

	for row := 0; row < height; row++ {
		strips := rowStrips(grid, cluster.Bounds, row)
		matched := make([]bool, len(open))
		var stillOpen []openRect
		for _, s := range strips {
			found := -1
			for i, o := range open {
				if !matched[i] && o.minCol == s.minCol && o.maxCol == s.maxCol {
					found = i
					break
				}
			}
			if found >= 0 {
				matched[found] = true
				stillOpen = append(stillOpen, open[found])
			} else {
				stillOpen = append(stillOpen, openRect{minCol: s.minCol, maxCol: s.maxCol, minRow: row})
			}
		}
		for i, o := range open {
			if !matched[i] {
				finished = append(finished, Rect{MinCol: o.minCol, MinRow: o.minRow, MaxCol: o.maxCol, MaxRow: row - 1})
			}
		}
		open = stillOpen
	}
	for _, o := range open {
		finished = append(finished, Rect{MinCol: o.minCol, MinRow: o.minRow, MaxCol: o.maxCol, MaxRow: height - 1})
	}

	if len(finished) > MaxRegions {
		log.Printf("hgraph: cluster (%d,%d) decomposed into %d regions, truncating to %d",
			cluster.ID.CX, cluster.ID.CY, len(finished), MaxRegions)
		finished = finished[:MaxRegions]
	}

	for row := range cluster.RegionLookup {
		for col := range cluster.RegionLookup[row] {
			cluster.RegionLookup[row][col] = -1
		}
	}

	cluster.Regions = make([]Region, len(finished))
	for i, rect := range finished {
		region := Region{ID: RegionID(i), Bounds: rect}
		verts := rect.Vertices()
		region.VertexN = len(verts)
		for vi, v := range verts {
			region.Vertices[vi] = grid.GridToWorld(cluster.Bounds.MinCol+v[0], cluster.Bounds.MinRow+v[1])
		}
		cluster.Regions[i] = region
		for r := rect.MinRow; r <= rect.MaxRow; r++ {
			for c := rect.MinCol; c <= rect.MaxCol; c++ {
				cluster.RegionLookup[r][c] = int8(i)
			}
		}
	}
}

// intervalOverlap returns the intersection of two closed integer intervals
// and whether it is non-empty.
func intervalOverlap(aMin, aMax, bMin, bMax int) (int, int, bool) {
	lo := aMin
	if bMin > lo {
		lo = bMin
	}
	hi := aMax
	if bMax < hi {
		hi = bMax
	}
	return lo, hi, lo <= hi
}

// connectRegions appends a bidirectional RegionPortal between every pair of
// regions in the cluster that share a colinear axis-aligned edge.
func connectRegions(grid *gridfield.Grid, cluster *Cluster) {
	for i := range cluster.Regions {
		for j := i + 1; j < len(cluster.Regions); j++ {
			a := &cluster.Regions[i]
			b := &cluster.Regions[j]

			// Vertically adjacent: a sits directly above or below b and
			// their column ranges overlap.
			if a.Bounds.MaxRow+1 == b.Bounds.MinRow || b.Bounds.MaxRow+1 == a.Bounds.MinRow {
				lo, hi, ok := intervalOverlap(a.Bounds.MinCol, a.Bounds.MaxCol, b.Bounds.MinCol, b.Bounds.MaxCol)
				if ok {
					row := a.Bounds.MaxRow + 1
					if row != b.Bounds.MinRow {
						row = b.Bounds.MaxRow + 1
					}
					col := (lo + hi) / 2
					center := grid.GridToWorld(cluster.Bounds.MinCol+col, cluster.Bounds.MinRow+row)
					addPortalPair(a, b, center)
					continue
				}
			}

			// Horizontally adjacent: a sits directly left or right of b
			// and their row ranges overlap.
			if a.Bounds.MaxCol+1 == b.Bounds.MinCol || b.Bounds.MaxCol+1 == a.Bounds.MinCol {
				lo, hi, ok := intervalOverlap(a.Bounds.MinRow, a.Bounds.MaxRow, b.Bounds.MinRow, b.Bounds.MaxRow)
				if ok {
					col := a.Bounds.MaxCol + 1
					if col != b.Bounds.MinCol {
						col = b.Bounds.MaxCol + 1
					}
					row := (lo + hi) / 2
					center := grid.GridToWorld(cluster.Bounds.MinCol+col, cluster.Bounds.MinRow+row)
					addPortalPair(a, b, center)
				}
			}
		}
	}
}

func addPortalPair(a, b *Region, center fixedmath.Fixed2) {
	a.Portals = append(a.Portals, RegionPortal{Center: center, NextRegion: b.ID})
	b.Portals = append(b.Portals, RegionPortal{Center: center, NextRegion: a.ID})
}
