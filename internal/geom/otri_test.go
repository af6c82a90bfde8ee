package geom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOTriEncodeDecode(t *testing.T) {
	o := MakeOTri(7, 2)
	require.Equal(t, 7, o.ID())
	require.Equal(t, 2, o.Rot())
}

func TestOTriNextPrevCycle(t *testing.T) {
	o := MakeOTri(3, 0)
	require.Equal(t, MakeOTri(3, 1), o.Next())
	require.Equal(t, MakeOTri(3, 2), o.Next().Next())
	require.Equal(t, o, o.Next().Next().Next())
	require.Equal(t, o, o.Prev().Next())
}

func TestPoolBindIsSymmetric(t *testing.T) {
	points := []Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	p := NewPool(points)

	t1 := p.NewTriangle(0, 1, 2)
	t2 := p.NewTriangle(Ghost, 1, 0)
	p.Bind(t1.Next().Next(), t2)

	require.Equal(t, t2, p.Sym(t1.Next().Next()))
	require.Equal(t, t1.Next().Next(), p.Sym(t2))
	require.Equal(t, t1.Next().Next(), p.Sym(p.Sym(t1.Next().Next())))
}

func TestPoolOrgDestApex(t *testing.T) {
	points := []Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	p := NewPool(points)
	tri := p.NewTriangle(2, 0, 1) // apex=2, org=0, dest=1 at rot0

	require.Equal(t, 0, p.Org(tri))
	require.Equal(t, 1, p.Dest(tri))
	require.Equal(t, 2, p.Apex(tri))

	n := tri.Next()
	require.Equal(t, 1, p.Org(n))
	require.Equal(t, 2, p.Dest(n))
	require.Equal(t, 0, p.Apex(n))
}

func TestPoolGhostNormalIsZero(t *testing.T) {
	points := []Point{{X: 0, Y: 0, Z: 5}, {X: 1, Y: 0, Z: 5}}
	p := NewPool(points)
	g := p.NewTriangle(Ghost, 0, 1)

	require.True(t, p.IsGhost(g))
	require.False(t, p.Valid(g))
	nx, ny, nz := p.Normal(g)
	require.Equal(t, 0.0, nx)
	require.Equal(t, 0.0, ny)
	require.Equal(t, 0.0, nz)
}

func TestPoolNormalNonGhost(t *testing.T) {
	points := []Point{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}}
	p := NewPool(points)
	tri := p.NewTriangle(0, 1, 2)
	require.True(t, p.Valid(tri))
	_, _, nz := p.Normal(tri)
	require.Greater(t, nz, 0.0)
}
