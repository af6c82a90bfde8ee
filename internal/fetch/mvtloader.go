package fetch

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/gendx/panoramix/internal/mvt"
)

// MVTLoader fetches and decodes elevation-contour tiles, collapsing any
// concurrent requests for the same tile path into a single fetch.
type MVTLoader struct {
	coord  *Coordinator
	domain string
	group  singleflight.Group
}

// NewMVTLoader builds a loader that dispatches fetches through coord
// against the given domain (e.g. a tile server host).
func NewMVTLoader(coord *Coordinator, domain string) *MVTLoader {
	return &MVTLoader{coord: coord, domain: domain}
}

// Load fetches path (if not already in flight) and decodes it as an MVT
// contour tile. Concurrent Load calls for the same path share one
// underlying fetch and decode.
func (l *MVTLoader) Load(ctx context.Context, path string) ([]mvt.Polyline, error) {
	v, err, _ := l.group.Do(path, func() (interface{}, error) {
		rc, err := l.coord.Get(ctx, l.domain, path)
		if err != nil {
			return nil, errors.Wrap(err, "fetch mvt tile")
		}
		defer rc.Close()

		raw, err := io.ReadAll(rc)
		if err != nil {
			return nil, errors.Wrap(err, "read mvt tile body")
		}

		polys, err := mvt.DecodeContours(raw)
		if err != nil {
			return nil, errors.Wrap(err, "decode mvt tile")
		}
		return polys, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]mvt.Polyline), nil
}
