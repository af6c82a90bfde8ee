package geom

import "sort"

// node is one level of the balanced alternating-axis search tree. Leaves
// have PointIdx >= 0 and no children; internal nodes store a split value
// along Axis (0 = x, 1 = y) and indices of their two children in the
// owning Tree's flat node pool.
type node struct {
	Axis      int
	Split     float64
	PointIdx  int // -1 unless this is a leaf
	Left      int // -1 unless this is an internal node
	Right     int
}

// Tree is the balanced 2D search index (C3): an alternating-axis partition
// tree over a point set, used to seed point-location walks (Find). Rank
// exposes the tree's alternating-axis leaf order as a balance heuristic;
// the Delaunay divide-and-conquer builder recurses over a plain x-then-y
// sort instead and does not consume it.
type Tree struct {
	points []Point
	nodes  []node
	root   int
	rank   []int
}

// Build constructs a Tree over points. When triadSort is true, any subrange
// of three or fewer points is kept sorted by x regardless of the active
// axis -- required by the Delaunay base case, which consumes 2- and
// 3-point leaf groups in x order.
func Build(points []Point, triadSort bool) *Tree {
	t := &Tree{points: points}
	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	sortByAxis(points, order, 0)
	t.root = t.build(order, 0, triadSort)
	return t
}

func sortByAxis(points []Point, order []int, axis int) {
	sort.Slice(order, func(i, j int) bool {
		pi, pj := points[order[i]], points[order[j]]
		if axis == 0 {
			if pi.X != pj.X {
				return pi.X < pj.X
			}
			return pi.Y < pj.Y
		}
		if pi.Y != pj.Y {
			return pi.Y < pj.Y
		}
		return pi.X < pj.X
	})
}

func coord(p Point, axis int) float64 {
	if axis == 0 {
		return p.X
	}
	return p.Y
}

// build recurses on order (already sorted along axis), returning the index
// of the newly created node in t.nodes.
func (t *Tree) build(order []int, axis int, triadSort bool) int {
	if len(order) <= 3 && triadSort {
		sortByAxis(t.points, order, 0)
	}

	if len(order) == 1 {
		t.nodes = append(t.nodes, node{PointIdx: order[0], Left: -1, Right: -1})
		t.rank = append(t.rank, order[0])
		return len(t.nodes) - 1
	}

	mid := len(order) / 2
	left := append([]int(nil), order[:mid]...)
	right := append([]int(nil), order[mid:]...)

	splitVal := (coord(t.points[order[mid-1]], axis) + coord(t.points[order[mid]], axis)) / 2

	nextAxis := 1 - axis
	sortByAxis(t.points, left, nextAxis)
	sortByAxis(t.points, right, nextAxis)

	leftIdx := t.build(left, nextAxis, triadSort)
	rightIdx := t.build(right, nextAxis, triadSort)

	t.nodes = append(t.nodes, node{Axis: axis, Split: splitVal, PointIdx: -1, Left: leftIdx, Right: rightIdx})
	return len(t.nodes) - 1
}

// Find descends the tree comparing p's coordinate on each node's axis to
// its split value, returning the index of the point at the leaf reached.
// The result is an approximate nearest point suitable as a walk start, not
// an exact nearest-neighbor query.
func (t *Tree) Find(p Point) int {
	n := t.root
	for t.nodes[n].PointIdx < 0 {
		cur := t.nodes[n]
		if coord(p, cur.Axis) < cur.Split {
			n = cur.Left
		} else {
			n = cur.Right
		}
	}
	return t.nodes[n].PointIdx
}

// Rank returns the permutation of point indices in leaf (in-order) order:
// a balance heuristic from the original engine, not consumed by this
// package's Delaunay builder (see the "Delaunay recursion order" note).
func (t *Tree) Rank() []int {
	return t.rank
}
