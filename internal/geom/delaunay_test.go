package geom

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTriangulateThreePointsCCW(t *testing.T) {
	points := []Point{
		{X: 0, Y: 0, Z: 10},
		{X: 1, Y: 0, Z: 20},
		{X: 0, Y: 1, Z: 30},
	}
	d, _ := Triangulate(points)

	valid := d.ValidTriangles()
	require.Len(t, valid, 1)

	tri := valid[0]
	p := d.Pool
	require.False(t, p.IsGhost(tri))
	require.Greater(t, Det(p.Points[p.Org(tri)], p.Points[p.Dest(tri)], p.Points[p.Apex(tri)]), 0.0)

	z := Interpolate(Point{X: 0.25, Y: 0.25}, points[0], points[1], points[2])
	require.InDelta(t, 17.5, z, 1e-9)
}

func TestTriangulateCollinearTripleHasNoInteriorTriangle(t *testing.T) {
	points := []Point{
		{X: 0, Y: 0},
		{X: 1, Y: 0},
		{X: 2, Y: 0},
	}
	d, _ := Triangulate(points)
	require.Len(t, d.ValidTriangles(), 0)
}

func TestTriangulateDedupDuplicatePoints(t *testing.T) {
	points := []Point{
		{X: 0, Y: 0, Z: 1},
		{X: 1, Y: 0, Z: 2},
		{X: 0, Y: 1, Z: 3},
		{X: 0, Y: 0, Z: 1}, // exact duplicate of points[0]
	}
	d, srcToDedup := Triangulate(points)
	require.Equal(t, 3, d.numPoints)
	require.Equal(t, srcToDedup[0], srcToDedup[3])
	require.Len(t, d.ValidTriangles(), 1)
}

func TestTriangulateAdjacencyIsSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points := make([]Point, 60)
	for i := range points {
		points[i] = Point{X: rng.Float64() * 100, Y: rng.Float64() * 100}
	}
	d, _ := Triangulate(points)
	p := d.Pool

	for id := range p.Tris {
		for rot := 0; rot < 3; rot++ {
			o := MakeOTri(id, rot)
			sym := p.Sym(o)
			require.Equal(t, o, p.Sym(sym), "sym must be involutive")
			require.Equal(t, p.Org(o), p.Dest(sym))
			require.Equal(t, p.Dest(o), p.Org(sym))
		}
	}
}

func TestTriangulateSatisfiesDelaunayCondition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	points := make([]Point, 40)
	for i := range points {
		points[i] = Point{X: rng.Float64() * 50, Y: rng.Float64() * 50}
	}
	d, _ := Triangulate(points)
	p := d.Pool

	const eps = 1e-6
	for _, tri := range d.ValidTriangles() {
		a, b, c := p.Org(tri), p.Dest(tri), p.Apex(tri)
		for _, q := range range3(p.Points) {
			if q == a || q == b || q == c {
				continue
			}
			require.LessOrEqual(t, InCircle(p.Points[a], p.Points[b], p.Points[c], p.Points[q]), eps)
		}
	}
}

func range3(points []Point) []int {
	out := make([]int, len(points))
	for i := range points {
		out[i] = i
	}
	return out
}

func TestTriangulateOrientationIsCCW(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	points := make([]Point, 30)
	for i := range points {
		points[i] = Point{X: rng.Float64() * 20, Y: rng.Float64() * 20}
	}
	d, _ := Triangulate(points)
	p := d.Pool
	for _, tri := range d.ValidTriangles() {
		a, b, c := p.Points[p.Org(tri)], p.Points[p.Dest(tri)], p.Points[p.Apex(tri)]
		require.Greater(t, Det(a, b, c), 0.0)
	}
}

func TestFindTriangleLocatesContainingFace(t *testing.T) {
	rng := rand.New(rand.NewSource(123))
	points := make([]Point, 25)
	for i := range points {
		points[i] = Point{X: rng.Float64() * 10, Y: rng.Float64() * 10}
	}
	d, _ := Triangulate(points)

	for i, q := range points {
		found := d.FindTriangle(i, q)
		require.NotEqual(t, OTri(-1), found)
	}
}

func TestFindTriangleReturnsSentinelWhenSeedHasNoTriangle(t *testing.T) {
	points := []Point{
		{X: 0, Y: 0},
		{X: 1, Y: 0},
		{X: 2, Y: 0},
	}
	d, _ := Triangulate(points)
	require.Len(t, d.ValidTriangles(), 0)

	found := d.FindTriangle(0, Point{X: 0.5, Y: 0.5})
	require.Equal(t, OTri(-1), found)
	require.Less(t, int(found), 0, "callers must check this before calling Pool.Valid")
}
