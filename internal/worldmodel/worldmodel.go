// Package worldmodel assembles a terrain mesh from streamed contour tiles:
// it drives the fetch coordinator and tile cache, triangulates the
// collected points, and publishes an incrementally-refined mesh plus the
// labels visible within it.
package worldmodel

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/gendx/panoramix/internal/cache"
	"github.com/gendx/panoramix/internal/concurrency"
	"github.com/gendx/panoramix/internal/config"
	"github.com/gendx/panoramix/internal/fetch"
	"github.com/gendx/panoramix/internal/geodesy"
	"github.com/gendx/panoramix/internal/geom"
)

// WorldModel orchestrates tile fetching, decoding, caching, and Delaunay
// triangulation into a terrain mesh, re-centered by repeated LoadLatLon
// calls.
type WorldModel struct {
	cfg    *config.Config
	cache  *cache.TileCache
	loader *fetch.MVTLoader
	logger *log.Logger

	msgQueue *concurrency.Cell[[]pipelineMsg]

	// mTiles/mLabels are only touched from inside a single LoadLatLon
	// call's drain loop; LoadLatLon calls are not meant to run
	// concurrently with each other.
	mTiles  []tileSample
	mLabels []Label

	visibleLabels *concurrency.Cell[[]Label]
	delaunay      *concurrency.Cell[*geom.Delaunay]
	mesh          *concurrency.Cell[*Mesh]
	origin        *concurrency.Cell[geodesy.Origin]
	selection     *concurrency.Cell[geodesy.Point]

	pool *concurrency.Pool

	reloadMu sync.Mutex
	reload   func()
}

// New builds a WorldModel over the given cache and fetch loader, reading
// its tuning knobs from cfg.
func New(cfg *config.Config, tc *cache.TileCache, loader *fetch.MVTLoader) *WorldModel {
	modelKind := geodesy.ModelFlat
	if cfg.UseEarthCurvature {
		modelKind = geodesy.ModelSpherical
	}
	origin := geodesy.NewOriginWithRadius(0, 0, modelKind, cfg.EarthRadius)

	return &WorldModel{
		cfg:           cfg,
		cache:         tc,
		loader:        loader,
		logger:        log.New(os.Stderr, "[worldmodel] ", log.LstdFlags),
		msgQueue:      concurrency.NewCell[[]pipelineMsg](nil),
		visibleLabels: concurrency.NewCell[[]Label](nil),
		delaunay:      concurrency.NewCell[*geom.Delaunay](nil),
		mesh:          concurrency.NewCell[*Mesh](nil),
		origin:        concurrency.NewCell(origin),
		selection:     concurrency.NewCell(origin.Mercator),
		pool:          concurrency.NewPool(runtime.NumCPU()),
	}
}

// Close shuts down the pool of workers backing LoadLatLon's per-tile
// dispatch, waiting for in-flight tasks to drain up to ctx's deadline.
func (w *WorldModel) Close(ctx context.Context) {
	w.pool.Shutdown(ctx)
}

// SetReload registers the callback fired after each publication. A nil
// callback does not stop the pipeline: it just skips publishing (and the
// batch of messages that would have been published) until one is set.
func (w *WorldModel) SetReload(fn func()) {
	w.reloadMu.Lock()
	w.reload = fn
	w.reloadMu.Unlock()
}

func (w *WorldModel) getReload() func() {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	return w.reload
}

// Mesh returns the most recently published terrain mesh, or nil.
func (w *WorldModel) Mesh() *Mesh { return w.mesh.Get() }

// VisibleLabels returns the labels visible in the most recently published
// mesh, sorted by descending estimated elevation.
func (w *WorldModel) VisibleLabels() []Label { return w.visibleLabels.Get() }

// Delaunay returns the most recently published triangulation.
func (w *WorldModel) Delaunay() *geom.Delaunay { return w.delaunay.Get() }

// Origin returns the current model-frame anchor.
func (w *WorldModel) Origin() geodesy.Origin { return w.origin.Get() }

// Selection returns the current picked point, in Mercator coordinates.
func (w *WorldModel) Selection() geodesy.Point { return w.selection.Get() }

// SetSelection updates the current picked point (e.g. from a UI click),
// independent of the load pipeline.
func (w *WorldModel) SetSelection(p geodesy.Point) { w.selection.Set(p) }

// LoadLatLon re-centers the model on (lat, lon) at the given zoom. It
// fetches the surrounding tile pyramid and the labels blob, draining their
// results as they arrive and republishing the mesh after each batch.
func (w *WorldModel) LoadLatLon(ctx context.Context, latDeg, lonDeg float64, zoom int) {
	prevOrigin := w.origin.Get()
	origin := geodesy.NewOriginWithRadius(latDeg, lonDeg, prevOrigin.Model, w.cfg.EarthRadius)
	w.origin.Set(origin)
	w.selection.Set(origin.Mercator)

	zz := math.Ldexp(1, zoom)
	x := int(origin.Mercator.X * zz)
	y := int(origin.Mercator.Y * zz)

	tiles := genTileList(x, y, zoom, w.cfg.MinZoom)

	for _, info := range tiles {
		info := info
		w.pool.Submit(func(context.Context) { w.loadTile(ctx, info) })
	}
	w.pool.Submit(func(context.Context) { w.loadLabels(ctx) })

	expected := len(tiles) + 1
	received := 0
	for received < expected {
		w.msgQueue.Wait(func(q []pipelineMsg) bool { return len(q) > 0 })

		var messages []pipelineMsg
		w.msgQueue.Apply(func(q []pipelineMsg) []pipelineMsg {
			messages = q
			return nil
		})
		received += len(messages)

		reload := w.getReload()
		if reload == nil {
			w.logger.Printf("nothing to reload (%d/%d)", received, expected)
			continue
		}

		failed := 0
		for _, msg := range messages {
			if !msg.valid {
				failed++
				continue
			}
			switch msg.kind {
			case msgTile:
				w.mTiles = append(w.mTiles, msg.tile)
			case msgLabels:
				w.mLabels = msg.labels
			}
		}
		if failed > 0 {
			w.logger.Printf("received %d failed messages", failed)
		}

		w.recomputeMesh(origin)
		reload()
	}
}

func (w *WorldModel) postMessage(msg pipelineMsg) {
	w.msgQueue.Apply(func(q []pipelineMsg) []pipelineMsg { return append(q, msg) })
}

// loadTile resolves one tile: a cache hit decodes the simplified payload
// directly; a miss fetches and decodes the raw vector tile, and writes the
// simplified payload back for next time.
func (w *WorldModel) loadTile(ctx context.Context, info TileInfo) {
	key := fmt.Sprintf("%d-%d-%d.xyz", info.Zoom, info.X, info.Y)

	if r, ok := w.cache.Read(key); ok {
		points, err := decodeXYZ(r)
		_ = r.Close()
		if err == nil {
			w.postMessage(pipelineMsg{kind: msgTile, valid: true, tile: tileSample{info: info, points: points}})
			return
		}
		w.logger.Printf("corrupt cached tile %s: %v", key, err)
	}

	zz := 1 << uint(info.Zoom)
	xx := ((info.X % zz) + zz) % zz
	path := fmt.Sprintf("/v4/%s/%d/%d/%d.mvt", w.cfg.TileSource, info.Zoom, xx, info.Y)

	polys, err := w.loader.Load(ctx, path)
	if err != nil {
		w.logger.Printf("fetch tile %s: %v", key, err)
		w.postMessage(pipelineMsg{kind: msgTile, valid: false})
		return
	}

	scale := 1.0 / (4096.0 * float64(zz))
	translateX := float64(info.X) * 4096
	translateY := float64(info.Y) * 4096

	points := make([]geodesy.Point, 0)
	for _, poly := range polys {
		for _, gp := range poly.Points {
			points = append(points, geodesy.Point{
				X: (float64(gp.X) + translateX) * scale,
				Y: (float64(gp.Y) + translateY) * scale,
				Z: float64(poly.Elevation),
			})
		}
	}

	if wc, werr := w.cache.Write(key); werr == nil {
		_, _ = wc.Write(encodeXYZ(points))
		_ = wc.Close()
	}

	w.postMessage(pipelineMsg{kind: msgTile, valid: true, tile: tileSample{info: info, points: points}})
}

func (w *WorldModel) loadLabels(ctx context.Context) {
	r, ok := w.cache.ReadLabels()
	if !ok {
		w.postMessage(pipelineMsg{kind: msgLabels, valid: false})
		return
	}
	defer r.Close()

	labels, err := decodeLabels(r)
	if err != nil {
		w.logger.Printf("decode labels: %v", err)
		w.postMessage(pipelineMsg{kind: msgLabels, valid: false})
		return
	}
	w.postMessage(pipelineMsg{kind: msgLabels, valid: true, labels: labels})
}

// recomputeMesh flattens mTiles into a point cloud, triangulates it,
// filters and snaps labels against the result, and publishes both.
func (w *WorldModel) recomputeMesh(origin geodesy.Origin) {
	var points []geom.Point
	loadedTiles := make([]TileInfo, 0, len(w.mTiles))
	for _, t := range w.mTiles {
		points = append(points, t.points...)
		loadedTiles = append(loadedTiles, t.info)
	}

	if len(points) < 3 {
		return
	}

	d, _ := geom.Triangulate(points)

	labelCount := 0
	if w.mLabels != nil {
		visible := snapLabels(d, filterLabels(w.mLabels, loadedTiles), origin)
		labelCount = len(visible)
		w.visibleLabels.Set(visible)
	}

	mesh := buildMesh(d, origin, w.cfg.UseEarthCurvature)
	mesh.TileCount = len(w.mTiles)
	mesh.LabelCount = labelCount

	w.delaunay.Set(d)
	w.mesh.Set(mesh)
}

// snapLabels point-locates each label in d (seeded via a balanced search
// index over d's points), replaces its elevation with the interpolated
// ground height, transforms it into the model frame, and returns the
// result sorted by descending estimated elevation.
func snapLabels(d *geom.Delaunay, labels []Label, origin geodesy.Origin) []Label {
	if len(d.Pool.Points) == 0 || len(labels) == 0 {
		return nil
	}
	tree := geom.Build(d.Pool.Points, true)

	visible := make([]Label, 0, len(labels))
	for _, l := range labels {
		seed := tree.Find(l.Point)
		otri := d.FindTriangle(seed, l.Point)
		if otri < 0 || !d.Pool.Valid(otri) {
			// otri < 0 is FindTriangle's sentinel for "seed vertex has no
			// incident triangle" (e.g. a collinear point cloud); Pool.Valid
			// would panic indexing Tris with a negative id.
			continue
		}

		a := d.Pool.Points[d.Pool.Org(otri)]
		b := d.Pool.Points[d.Pool.Dest(otri)]
		c := d.Pool.Points[d.Pool.Apex(otri)]
		z := geom.Interpolate(l.Point, a, b, c)

		snapped := l
		snapped.Point.Z = z
		snapped.Point = origin.MercatorToModel(snapped.Point)
		visible = append(visible, snapped)
	}

	sort.Slice(visible, func(i, j int) bool {
		return visible[i].ElevationEstimate() > visible[j].ElevationEstimate()
	})
	return visible
}

// encodeXYZ/decodeXYZ are the simplified tile cache payload format: a flat
// run of little-endian float64 (x, y, z) triples. There is no generated
// schema for this internal format the way there is for MVT tiles, so it is
// a direct binary.Write/Read of the point list rather than a fabricated
// protobuf message.
func encodeXYZ(points []geodesy.Point) []byte {
	buf := make([]byte, 0, 24*len(points))
	for _, p := range points {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p.X))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p.Y))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(p.Z))
	}
	return buf
}

func decodeXYZ(r io.Reader) ([]geodesy.Point, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("worldmodel: read xyz payload: %w", err)
	}
	if len(data)%24 != 0 {
		return nil, fmt.Errorf("worldmodel: corrupt xyz payload (%d bytes)", len(data))
	}

	points := make([]geodesy.Point, 0, len(data)/24)
	for i := 0; i+24 <= len(data); i += 24 {
		points = append(points, geodesy.Point{
			X: math.Float64frombits(binary.LittleEndian.Uint64(data[i:])),
			Y: math.Float64frombits(binary.LittleEndian.Uint64(data[i+8:])),
			Z: math.Float64frombits(binary.LittleEndian.Uint64(data[i+16:])),
		})
	}
	return points, nil
}
