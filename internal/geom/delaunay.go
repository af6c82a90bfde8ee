package geom

import "sort"

// qe is a directed-edge handle into the scratch quad-edge engine used only
// during construction: (record << 2) | rot, rot in {0,1,2,3}. Rotations 0
// and 2 are the primal edge and its Sym; 1 and 3 are the dual (face-ring)
// edges, used only internally by Onext/Lnext/Oprev algebra.
type qe int32

type qeRecord struct {
	next [4]qe
	org  [4]int32
}

// engine runs the classical Guibas-Stolfi divide-and-conquer construction
// (Lnext/Onext/Splice/Connect/DeleteEdge) over the deduplicated, x-then-y
// sorted point set. It has no notion of ghost vertices: the unbounded face
// is, at this stage, just another face of the planar subdivision, found by
// walking Lnext. Translating that unbounded face into one ghost Triangle
// per hull edge -- the representation the rest of the engine consumes --
// happens once construction finishes, in materialize.
type engine struct {
	points []Point
	pool   []qeRecord
}

func mkqe(rec int32, rot int32) qe { return qe(rec)<<2 | qe(rot) }
func (e qe) rec() int32            { return int32(e >> 2) }
func (e qe) rot() int32            { return int32(e & 3) }

func (g *engine) rotE(e qe) qe    { return mkqe(e.rec(), (e.rot()+1)%4) }
func (g *engine) symE(e qe) qe    { return mkqe(e.rec(), (e.rot()+2)%4) }
func (g *engine) invRotE(e qe) qe { return mkqe(e.rec(), (e.rot()+3)%4) }

func (g *engine) onext(e qe) qe { return g.pool[e.rec()].next[e.rot()] }
func (g *engine) setOnext(e qe, v qe) {
	g.pool[e.rec()].next[e.rot()] = v
}

func (g *engine) oprev(e qe) qe { return g.rotE(g.onext(g.rotE(e))) }
func (g *engine) lnext(e qe) qe { return g.rotE(g.onext(g.invRotE(e))) }
func (g *engine) rprev(e qe) qe { return g.onext(g.symE(e)) }

func (g *engine) org(e qe) int32  { return g.pool[e.rec()].org[e.rot()] }
func (g *engine) dest(e qe) int32 { return g.org(g.symE(e)) }

func (g *engine) setEndpoints(e qe, org, dest int32) {
	g.pool[e.rec()].org[e.rot()] = org
	g.pool[e.rec()].org[g.symE(e).rot()] = dest
}

func (g *engine) makeEdge() qe {
	rec := int32(len(g.pool))
	g.pool = append(g.pool, qeRecord{})
	g.pool[rec].next[0] = mkqe(rec, 0)
	g.pool[rec].next[1] = mkqe(rec, 3)
	g.pool[rec].next[2] = mkqe(rec, 2)
	g.pool[rec].next[3] = mkqe(rec, 1)
	return mkqe(rec, 0)
}

func (g *engine) splice(a, b qe) {
	alpha := g.rotE(g.onext(a))
	beta := g.rotE(g.onext(b))
	t1 := g.onext(b)
	t2 := g.onext(a)
	t3 := g.onext(beta)
	t4 := g.onext(alpha)
	g.setOnext(a, t1)
	g.setOnext(b, t2)
	g.setOnext(alpha, t3)
	g.setOnext(beta, t4)
}

func (g *engine) connect(a, b qe) qe {
	e := g.makeEdge()
	g.setEndpoints(e, g.dest(a), g.org(b))
	g.splice(e, g.lnext(a))
	g.splice(g.symE(e), b)
	return e
}

func (g *engine) deleteEdge(e qe) {
	g.splice(e, g.oprev(e))
	g.splice(g.symE(e), g.oprev(g.symE(e)))
}

func (g *engine) p(idx int32) Point { return g.points[idx] }

func (g *engine) rightOf(pIdx int32, e qe) bool {
	return Det(g.p(pIdx), g.p(g.dest(e)), g.p(g.org(e))) > 0
}

func (g *engine) leftOf(pIdx int32, e qe) bool {
	return Det(g.p(pIdx), g.p(g.org(e)), g.p(g.dest(e))) > 0
}

func (g *engine) inCircle(a, b, c, d int32) bool {
	return InCircle(g.p(a), g.p(b), g.p(c), g.p(d)) > 0
}

// triangulate runs the recursive divide-and-conquer over order (point
// indices already sorted lexicographically by x then y) and returns the
// leftmost hull edge (ldo) and rightmost hull edge (rdo) of the full
// structure.
func (g *engine) triangulate(order []int32) (ldo, rdo qe) {
	n := len(order)
	switch {
	case n == 2:
		a := g.makeEdge()
		g.setEndpoints(a, order[0], order[1])
		return a, g.symE(a)

	case n == 3:
		a := g.makeEdge()
		b := g.makeEdge()
		g.splice(g.symE(a), b)
		g.setEndpoints(a, order[0], order[1])
		g.setEndpoints(b, order[1], order[2])

		s0, s1, s2 := g.p(order[0]), g.p(order[1]), g.p(order[2])
		switch {
		case Det(s0, s1, s2) > 0:
			g.connect(b, a)
			return a, g.symE(b)
		case Det(s0, s2, s1) > 0:
			c := g.connect(b, a)
			return g.symE(c), c
		default:
			// Collinear: no interior triangle, just the two-edge path.
			return a, g.symE(b)
		}

	default:
		mid := n / 2
		ldo, ldi := g.triangulate(order[:mid])
		rdi, rdo := g.triangulate(order[mid:])

		for {
			if g.leftOf(g.org(rdi), ldi) {
				ldi = g.lnext(ldi)
			} else if g.rightOf(g.org(ldi), rdi) {
				rdi = g.rprev(rdi)
			} else {
				break
			}
		}

		basel := g.connect(g.symE(rdi), ldi)
		if g.org(ldi) == g.org(ldo) {
			ldo = g.symE(basel)
		}
		if g.org(rdi) == g.org(rdo) {
			rdo = basel
		}

		for {
			lcand := g.onext(g.symE(basel))
			validL := g.rightOf(g.dest(lcand), basel)
			if validL {
				for g.inCircle(g.dest(basel), g.org(basel), g.dest(lcand), g.dest(g.onext(lcand))) {
					t := g.onext(lcand)
					g.deleteEdge(lcand)
					lcand = t
				}
			}

			rcand := g.oprev(basel)
			validR := g.rightOf(g.dest(rcand), basel)
			if validR {
				for g.inCircle(g.dest(basel), g.org(basel), g.dest(rcand), g.dest(g.oprev(rcand))) {
					t := g.oprev(rcand)
					g.deleteEdge(rcand)
					rcand = t
				}
			}

			if !validL && !validR {
				break
			}
			if !validL || (validR && g.inCircle(g.dest(lcand), g.org(lcand), g.org(rcand), g.dest(rcand))) {
				basel = g.connect(rcand, g.symE(basel))
			} else {
				basel = g.connect(g.symE(basel), g.symE(lcand))
			}
		}

		return ldo, rdo
	}
}

// Delaunay is the finished triangulation: a Pool of real and ghost
// Triangles, plus a per-vertex incident OTri used to seed point-location
// walks.
type Delaunay struct {
	Pool      *Pool
	incident  []OTri // one valid (all-real) OTri touching each vertex; meaningful only where hasTri is set
	hasTri    []bool
	numPoints int
}

// Triangulate deduplicates points (exact coordinate match), sorts the
// survivors lexicographically, and builds their Delaunay triangulation.
// The returned slice maps each input index to the deduplicated point index
// actually used in the mesh (duplicates collapse onto their first
// occurrence).
func Triangulate(points []Point) (*Delaunay, []int) {
	type indexed struct {
		p   Point
		src int
	}
	tmp := make([]indexed, len(points))
	for i, p := range points {
		tmp[i] = indexed{p, i}
	}
	sort.Slice(tmp, func(i, j int) bool {
		if tmp[i].p.X != tmp[j].p.X {
			return tmp[i].p.X < tmp[j].p.X
		}
		return tmp[i].p.Y < tmp[j].p.Y
	})

	dedup := make([]Point, 0, len(points))
	srcToDedup := make([]int, len(points))
	for i, it := range tmp {
		if i > 0 && it.p == tmp[i-1].p {
			srcToDedup[it.src] = len(dedup) - 1
			continue
		}
		dedup = append(dedup, it.p)
		srcToDedup[it.src] = len(dedup) - 1
	}

	order := make([]int32, len(dedup))
	for i := range order {
		order[i] = int32(i)
	}

	pool := NewPool(dedup)
	d := &Delaunay{Pool: pool, numPoints: len(dedup)}

	if len(dedup) == 0 {
		return d, srcToDedup
	}
	if len(dedup) == 1 {
		d.incident = []OTri{-1}
		d.hasTri = []bool{false}
		return d, srcToDedup
	}

	g := &engine{points: dedup}
	ldo, _ := g.triangulate(order)
	d.materialize(g, ldo)
	return d, srcToDedup
}

// materialize walks the live quad-edge structure reachable from start,
// groups it into faces via lnext, and builds the Pool's Triangle records:
// one real Triangle per counter-clockwise length-3 face, and one ghost
// Triangle per edge of every other (hull/unbounded) face.
func (d *Delaunay) materialize(g *engine, start qe) {
	visited := map[qe]bool{start: true}
	queue := []qe{start}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		for _, nx := range [2]qe{g.onext(e), g.symE(e)} {
			if !visited[nx] {
				visited[nx] = true
				queue = append(queue, nx)
			}
		}
	}

	deToOTri := make(map[qe]OTri, len(visited)*2)
	faceVisited := make(map[qe]bool, len(visited))

	var faces [][]qe
	for e := range visited {
		if faceVisited[e] {
			continue
		}
		face := []qe{}
		cur := e
		for {
			if faceVisited[cur] {
				break
			}
			faceVisited[cur] = true
			face = append(face, cur)
			cur = g.lnext(cur)
			if cur == e {
				break
			}
		}
		faces = append(faces, face)
	}

	for _, face := range faces {
		if len(face) == 3 && Det(g.p(g.org(face[0])), g.p(g.org(face[1])), g.p(g.org(face[2]))) > 0 {
			va := int(g.org(face[0]))
			vb := int(g.org(face[1]))
			vc := int(g.org(face[2]))
			tri := d.Pool.NewTriangle(vc, va, vb)
			deToOTri[face[0]] = tri
			deToOTri[face[1]] = tri.Next()
			deToOTri[face[2]] = tri.Next().Next()
			continue
		}

		h := len(face)
		ghosts := make([]OTri, h)
		for i, e := range face {
			org := int(g.org(e))
			dest := int(g.dest(e))
			ghosts[i] = d.Pool.NewTriangle(Ghost, org, dest)
			deToOTri[e] = ghosts[i]
		}
		for i := 0; i < h; i++ {
			next := (i + 1) % h
			d.Pool.Bind(ghosts[i].Next(), ghosts[next].Next().Next())
		}
	}

	bound := make(map[qe]bool, len(deToOTri))
	for e, otri := range deToOTri {
		if bound[e] {
			continue
		}
		se := g.symE(e)
		other, ok := deToOTri[se]
		if !ok {
			continue
		}
		d.Pool.Bind(otri, other)
		bound[e] = true
		bound[se] = true
	}

	d.incident = make([]OTri, d.numPoints)
	d.hasTri = make([]bool, d.numPoints)
	for id, tri := range d.Pool.Tris {
		if tri.V[0] == Ghost || tri.V[1] == Ghost || tri.V[2] == Ghost {
			continue
		}
		for r := 0; r < 3; r++ {
			v := tri.V[r]
			if !d.hasTri[v] {
				d.hasTri[v] = true
				d.incident[v] = MakeOTri(id, r)
			}
		}
	}
}

// IncidentOTri returns an OTri whose apex is vertex v, belonging to a real
// (all-real-vertex) triangle, or false if v has no incident triangle.
func (d *Delaunay) IncidentOTri(v int) (OTri, bool) {
	if v < 0 || v >= len(d.hasTri) || !d.hasTri[v] {
		return 0, false
	}
	return d.incident[v], true
}

// ValidTriangles returns the OTri rotation-0 handle of every interior
// (all-real-vertex) triangle.
func (d *Delaunay) ValidTriangles() []OTri {
	var out []OTri
	for id, tri := range d.Pool.Tris {
		if tri.V[0] != Ghost && tri.V[1] != Ghost && tri.V[2] != Ghost {
			out = append(out, MakeOTri(id, 0))
		}
	}
	return out
}

// FindTriangle walks the mesh from a point-location seed toward the
// triangle containing q, returning a ghost OTri if q lies outside the
// convex hull, or the bare sentinel -1 if seedVertex has no incident
// triangle at all (e.g. every point in the cloud is collinear, so there
// are no interior triangles to seed from). Callers must check for that
// sentinel before calling Pool.Valid on the result.
//
// The walk starts from the incident triangle of the seed vertex nearest q
// (found by the caller, typically via a Tree.Find query) and tests q's
// segment to that triangle's centroid against each candidate triangle's
// edges, crossing whichever edge the segment intersects. The first
// iteration also tests the edge the walk started on, since a seed vertex
// can be Apex of its incident triangle; later iterations never recheck
// the edge just crossed.
func (d *Delaunay) FindTriangle(seedVertex int, q Point) OTri {
	if seedVertex < 0 || seedVertex >= len(d.hasTri) || !d.hasTri[seedVertex] {
		return -1
	}
	p := d.Pool
	cur := d.incident[seedVertex]
	center := d.triangleCenter(cur)

	for iter, started := 0, false; iter < 4*len(p.Tris)+16; iter, started = iter+1, true {
		if !p.Valid(cur) {
			break
		}

		if !started && d.crossesEdge(q, center, cur) {
			cur = p.Sym(cur)
			continue
		}

		cur = cur.Next()
		if d.crossesEdge(q, center, cur) {
			cur = p.Sym(cur)
			continue
		}

		cur = cur.Next()
		if d.crossesEdge(q, center, cur) {
			cur = p.Sym(cur)
			continue
		}

		break
	}
	return cur
}

// triangleCenter returns the centroid of otri's three vertices.
func (d *Delaunay) triangleCenter(otri OTri) Point {
	p := d.Pool
	a := p.Points[p.Org(otri)]
	b := p.Points[p.Dest(otri)]
	c := p.Points[p.Apex(otri)]
	return Point{X: (a.X + b.X + c.X) / 3, Y: (a.Y + b.Y + c.Y) / 3, Z: (a.Z + b.Z + c.Z) / 3}
}

// crossesEdge reports whether the segment (query, center] crosses otri's
// org-dest edge.
func (d *Delaunay) crossesEdge(query, center Point, otri OTri) bool {
	p := d.Pool
	_, _, ok := InterSegments(query, center, p.Points[p.Org(otri)], p.Points[p.Dest(otri)])
	return ok
}
