package cache

import (
	"os"
	"path/filepath"
	goruntime "runtime"
)

// GetCacheDir returns the OS-specific directory the tile cache should
// live under, following each platform's own convention for where
// long-lived application caches belong.
func GetCacheDir() string {
	homeDir, _ := os.UserHomeDir()

	switch goruntime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Caches", "panoramix", "tiles")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		return filepath.Join(appData, "panoramix", "cache", "tiles")
	default:
		cacheHome := os.Getenv("XDG_CACHE_HOME")
		if cacheHome == "" {
			cacheHome = filepath.Join(homeDir, ".cache")
		}
		return filepath.Join(cacheHome, "panoramix", "tiles")
	}
}
