package geom

// Ghost is the sentinel vertex index denoting "point at infinity", used to
// give the convex hull a uniform triangle representation: any Triangle with
// exactly one Ghost vertex is a hull half-edge triangle.
const Ghost = -1

// EnableGeometricAssert turns on the invariant checks in Bind. It is a
// compile-time switch and is off by default.
const EnableGeometricAssert = false

// OTri (oriented triangle) is a directed-edge handle encoded as a single
// integer: (id << 2) | rot, rot in {0,1,2}. It is deliberately a value
// type over a stable integer index into Pool's triangle slice, not a
// pointer -- the pool only grows during construction, so indices stay
// valid for the structure's lifetime.
type OTri int64

// MakeOTri builds the handle for triangle id at rotation rot.
func MakeOTri(id int, rot int) OTri {
	return OTri(id)<<2 | OTri(rot)
}

// ID returns the triangle this handle belongs to.
func (o OTri) ID() int { return int(o >> 2) }

// Rot returns the rotation (0, 1, or 2) identifying which directed edge of
// the triangle this handle names.
func (o OTri) Rot() int { return int(o & 3) }

// Next rotates forward within the same triangle (org <- old dest).
func (o OTri) Next() OTri { return MakeOTri(o.ID(), (o.Rot()+1)%3) }

// Prev rotates backward within the same triangle.
func (o OTri) Prev() OTri { return MakeOTri(o.ID(), (o.Rot()+2)%3) }

// Triangle is a record in the append-only pool: three vertex indices
// (Ghost for a point at infinity) and, for each rotation, the neighbor
// OTri across that directed edge.
type Triangle struct {
	V [3]int
	N [3]OTri
}

// Pool is the append-only store of Triangle records plus the point
// coordinates they index into.
type Pool struct {
	Points []Point
	Tris   []Triangle
}

// NewPool creates an empty pool over the given (already deduplicated)
// point set.
func NewPool(points []Point) *Pool {
	return &Pool{Points: points}
}

// NewTriangle appends a triangle with vertex slots (v0, v1, v2) -- at
// rotation 0 this means apex=v0, org=v1, dest=v2 -- and returns its
// rotation-0 handle. Neighbor slots start unbound (zero value) and must
// be filled by Bind.
func (p *Pool) NewTriangle(v0, v1, v2 int) OTri {
	id := len(p.Tris)
	p.Tris = append(p.Tris, Triangle{V: [3]int{v0, v1, v2}})
	return MakeOTri(id, 0)
}

// Org returns the origin vertex of the directed edge o names.
func (p *Pool) Org(o OTri) int { return p.Tris[o.ID()].V[(o.Rot()+1)%3] }

// Dest returns the destination vertex.
func (p *Pool) Dest(o OTri) int { return p.Tris[o.ID()].V[(o.Rot()+2)%3] }

// Apex returns the vertex opposite the directed edge.
func (p *Pool) Apex(o OTri) int { return p.Tris[o.ID()].V[o.Rot()] }

// SetOrg, SetDest, SetApex mutate one vertex slot by rotation.
func (p *Pool) SetOrg(o OTri, v int)  { p.Tris[o.ID()].V[(o.Rot()+1)%3] = v }
func (p *Pool) SetDest(o OTri, v int) { p.Tris[o.ID()].V[(o.Rot()+2)%3] = v }
func (p *Pool) SetApex(o OTri, v int) { p.Tris[o.ID()].V[o.Rot()] = v }

// Sym crosses to the triangle adjacent across o's directed edge.
func (p *Pool) Sym(o OTri) OTri { return p.Tris[o.ID()].N[o.Rot()] }

// Bind sets the neighbor slots of a and b to each other. Both handles
// must describe the same undirected edge from opposite sides
// (Org(a) == Dest(b) and Dest(a) == Org(b)); with EnableGeometricAssert
// set, a violation panics.
func (p *Pool) Bind(a, b OTri) {
	if EnableGeometricAssert && (p.Org(a) != p.Dest(b) || p.Dest(a) != p.Org(b)) {
		panic("geom: Bind called on handles that do not share an edge")
	}
	p.Tris[a.ID()].N[a.Rot()] = b
	p.Tris[b.ID()].N[b.Rot()] = a
}

// Onext returns the next directed edge counter-clockwise around Org(o),
// crossing into the neighboring triangle on the other side of the edge
// (Apex(o) -> Org(o)).
func (p *Pool) Onext(o OTri) OTri { return p.Sym(o.Prev()) }

// Oprev returns the next directed edge clockwise around Org(o).
func (p *Pool) Oprev(o OTri) OTri { return p.Sym(o).Next() }

// IsGhost reports whether o's apex is the point-at-infinity sentinel,
// i.e. whether the triangle it belongs to is a hull half-edge triangle.
func (p *Pool) IsGhost(o OTri) bool { return p.Apex(o) == Ghost }

// Valid reports whether the triangle o belongs to is interior: all three
// vertices are real points.
func (p *Pool) Valid(o OTri) bool {
	v := p.Tris[o.ID()].V
	return v[0] != Ghost && v[1] != Ghost && v[2] != Ghost
}

// Normal returns the (non-normalized) face normal of the triangle via the
// cross product of two edge vectors in (org, dest, apex) order. Ghost
// triangles have no meaningful normal and return the zero vector.
func (p *Pool) Normal(o OTri) (nx, ny, nz float64) {
	if p.IsGhost(o) {
		return 0, 0, 0
	}
	a := p.Points[p.Org(o)]
	b := p.Points[p.Dest(o)]
	c := p.Points[p.Apex(o)]

	ux, uy, uz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	vx, vy, vz := c.X-a.X, c.Y-a.Y, c.Z-a.Z

	nx = uy*vz - uz*vy
	ny = uz*vx - ux*vz
	nz = ux*vy - uy*vx
	return
}
