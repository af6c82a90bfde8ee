package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gendx/panoramix/internal/cache"
	"github.com/gendx/panoramix/internal/config"
	"github.com/gendx/panoramix/internal/fetch"
	"github.com/gendx/panoramix/internal/worldmodel"
)

var (
	loadLat       float64
	loadLon       float64
	loadZoom      int
	loadConfig    string
	loadCacheDir  string
	loadTimeoutMs int
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "fetch and triangulate the terrain surrounding a point",
	Long: `Centers the world model on the given latitude/longitude at the given
zoom level, streams in the surrounding tile pyramid and the global labels
blob, and prints a summary of the published mesh and visible labels after
each incremental publication.`,
	RunE: runLoad,
}

func init() {
	RootCmd.AddCommand(loadCmd)

	loadCmd.Flags().Float64Var(&loadLat, "lat", 0, "latitude in degrees (required)")
	loadCmd.Flags().Float64Var(&loadLon, "lon", 0, "longitude in degrees (required)")
	loadCmd.Flags().IntVar(&loadZoom, "zoom", 14, "zoom level of the requested point")
	loadCmd.Flags().StringVar(&loadConfig, "config", "", "path to a JSON config override")
	loadCmd.Flags().StringVar(&loadCacheDir, "cache-dir", "", "tile cache directory (defaults to the OS cache dir)")
	loadCmd.Flags().IntVar(&loadTimeoutMs, "timeout-ms", 30000, "overall load timeout in milliseconds")

	_ = loadCmd.MarkFlagRequired("lat")
	_ = loadCmd.MarkFlagRequired("lon")
}

func runLoad(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfiguration()
	if err != nil {
		return err
	}

	cacheDir := loadCacheDir
	if cacheDir == "" {
		cacheDir = cache.GetCacheDir()
	}
	tc, err := cache.NewTileCache(cacheDir, cfg.CacheLimit)
	if err != nil {
		return fmt.Errorf("open tile cache at %s: %w", cacheDir, err)
	}

	fetchFn := fetch.NewHTTPFetch(&http.Client{Timeout: 15 * time.Second}, cfg.TileToken)
	coord := fetch.NewCoordinator(cfg.MaxRequests, fetchFn)
	defer coord.Cancel()
	loader := fetch.NewMVTLoader(coord, cfg.TileDomain)

	wm := worldmodel.New(cfg, tc, loader)
	wm.SetReload(func() { printSummary(wm) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(loadTimeoutMs)*time.Millisecond)
	defer cancel()
	defer wm.Close(context.Background())

	wm.LoadLatLon(ctx, loadLat, loadLon, loadZoom)
	return nil
}

func loadConfiguration() (*config.Config, error) {
	if loadConfig == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(loadConfig)
}

func printSummary(wm *worldmodel.WorldModel) {
	mesh := wm.Mesh()
	if mesh == nil {
		fmt.Fprintln(os.Stdout, "mesh: not yet available")
		return
	}
	fmt.Fprintf(os.Stdout, "mesh: %d points, %d triangles, %d tiles, %d labels\n",
		mesh.PointCount, mesh.TriangleCount, mesh.TileCount, mesh.LabelCount)
}
