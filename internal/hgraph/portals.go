package hgraph

// directionDelta returns the cluster-grid offset for a compass direction,
// using the convention that CY increases northward and CX increases
// eastward.
func directionDelta(dir Direction) (int, int) {
	switch dir {
	case North:
		return 0, 1
	case South:
		return 0, -1
	case East:
		return 1, 0
	case West:
		return -1, 0
	case NorthEast:
		return 1, 1
	case NorthWest:
		return -1, 1
	case SouthEast:
		return 1, -1
	case SouthWest:
		return -1, -1
	}
	return 0, 0
}

func opposite(dir Direction) Direction {
	switch dir {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case NorthEast:
		return SouthWest
	case NorthWest:
		return SouthEast
	case SouthEast:
		return NorthWest
	case SouthWest:
		return NorthEast
	}
	return dir
}

// forwardDirections lists a set of directions that, applied from every
// cluster, visits every unordered pair of adjacent (including diagonal)
// clusters exactly once.
var forwardDirections = []Direction{East, North, NorthEast, SouthEast}

func (g *Graph) allocatePortalID() PortalID {
	g.nextPortalID++
	return g.nextPortalID
}

// buildInterClusterPortals scans every pair of adjacent clusters for
// contiguous walkable segments along their shared boundary and creates a
// sibling portal pair, linked bidirectionally, for each one.
func (g *Graph) buildInterClusterPortals() {
	g.Portals = make(map[PortalID]*Portal)
	for id, cluster := range g.Clusters {
		for _, dir := range forwardDirections {
			dcx, dcy := directionDelta(dir)
			neighborID := ClusterID{CX: id.CX + dcx, CY: id.CY + dcy}
			neighbor, ok := g.Clusters[neighborID]
			if !ok {
				continue
			}
			g.connectClusterPair(cluster, neighbor, dir)
		}
	}
}

// connectClusterPair creates portals along the shared boundary of two
// adjacent clusters and records, per island, the first portal id found that
// exits toward the neighbor.
func (g *Graph) connectClusterPair(a, b *Cluster, dir Direction) {
	dcx, dcy := directionDelta(dir)
	if dcx != 0 && dcy != 0 {
		// Diagonal neighbor: only the single corner cell pair can touch.
		aCol, aRow := cornerCell(a.Bounds, dcx, dcy)
		bCol, bRow := cornerCell(b.Bounds, -dcx, -dcy)
		if a.walkableAt(aCol, aRow) && b.walkableAt(bCol, bRow) {
			g.createPortalPair(a, b, dir, aCol, aRow, bCol, bRow)
		}
		return
	}

	if dcx != 0 {
		// East/West: scan the shared vertical edge row by row.
		aCol := a.Bounds.MaxCol
		bCol := b.Bounds.MinCol
		if dcx < 0 {
			aCol, bCol = a.Bounds.MinCol, b.Bounds.MaxCol
		}
		g.scanEdgeSegments(a, b, dir, ClusterSize, func(i int) (int, int, int, int) {
			return aCol, a.Bounds.MinRow + i, bCol, b.Bounds.MinRow + i
		})
		return
	}

	// North/South: scan the shared horizontal edge column by column.
	aRow := a.Bounds.MaxRow
	bRow := b.Bounds.MinRow
	if dcy < 0 {
		aRow, bRow = a.Bounds.MinRow, b.Bounds.MaxRow
	}
	g.scanEdgeSegments(a, b, dir, ClusterSize, func(i int) (int, int, int, int) {
		return a.Bounds.MinCol + i, aRow, b.Bounds.MinCol + i, bRow
	})
}

// scanEdgeSegments walks the shared boundary between two clusters and
// creates one portal pair per maximal contiguous run where both sides are
// walkable, at the segment's midpoint.
func (g *Graph) scanEdgeSegments(a, b *Cluster, dir Direction, length int, at func(i int) (ac, ar, bc, br int)) {
	start := -1
	flush := func(endExclusive int) {
		if start < 0 {
			return
		}
		mid := (start + endExclusive - 1) / 2
		ac, ar, bc, br := at(mid)
		g.createPortalPair(a, b, dir, ac, ar, bc, br)
		start = -1
	}
	for i := 0; i < length; i++ {
		ac, ar, bc, br := at(i)
		if a.walkableAt(ac, ar) && b.walkableAt(bc, br) {
			if start < 0 {
				start = i
			}
		} else {
			flush(i)
		}
	}
	flush(length)
}

func cornerCell(bounds Rect, dcx, dcy int) (int, int) {
	col := bounds.MinCol
	if dcx > 0 {
		col = bounds.MaxCol
	}
	row := bounds.MinRow
	if dcy > 0 {
		row = bounds.MaxRow
	}
	return col, row
}

func (c *Cluster) walkableAt(col, row int) bool {
	_, ok := regionIslandAt(c, col, row)
	return ok
}

func regionIslandAt(c *Cluster, col, row int) (IslandID, bool) {
	region, ok := c.regionAt(col-c.Bounds.MinCol, row-c.Bounds.MinRow)
	if !ok {
		return 0, false
	}
	return c.islandOf(region)
}

func (g *Graph) createPortalPair(a, b *Cluster, dir Direction, aCol, aRow, bCol, bRow int) {
	aID := g.allocatePortalID()
	bID := g.allocatePortalID()
	aPos := g.Grid.GridToWorld(aCol, aRow)
	bPos := g.Grid.GridToWorld(bCol, bRow)
	aIsland, _ := regionIslandAt(a, aCol, aRow)
	bIsland, _ := regionIslandAt(b, bCol, bRow)

	g.Portals[aID] = &Portal{ID: aID, Cluster: a.ID, Island: aIsland, WorldPos: aPos, Sibling: bID, HasSibing: true}
	g.Portals[bID] = &Portal{ID: bID, Cluster: b.ID, Island: bIsland, WorldPos: bPos, Sibling: aID, HasSibing: true}

	g.assignExit(a, aCol, aRow, dir, aID)
	g.assignExit(b, bCol, bRow, opposite(dir), bID)
}

// assignExit records the portal as the island's exit in the given
// direction, if the island does not already have one. Ties (an island
// touching the boundary in more than one place) keep the first portal
// found by scan order — the spec does not prescribe a tie-break.
func (g *Graph) assignExit(c *Cluster, col, row int, dir Direction, portal PortalID) {
	island, ok := regionIslandAt(c, col, row)
	if !ok {
		return
	}
	if c.Islands[island].HasExit[dir] {
		return
	}
	c.Islands[island].ExitPortal[dir] = portal
	c.Islands[island].HasExit[dir] = true
}
