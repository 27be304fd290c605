package cleanup

import (
	"os"
	"path/filepath"
)

// Targets enumerates the filesystem locations a cleanup pass touches.
// Tests substitute their own temporary trees.
type Targets struct {
	// TempRoots are directories whose entries are deleted, sparing
	// recently modified ones.
	TempRoots []string
	// CacheRoots are paths (optionally globs) removed wholesale.
	CacheRoots []string
	// BrowserCaches are per-browser cache paths (optionally globs).
	BrowserCaches map[string]string
	// LogRoots are directories or globs whose old files are removed.
	LogRoots []string
}

// DefaultTargets returns the standard Windows cleanup locations.
func DefaultTargets() Targets {
	home, _ := os.UserHomeDir()
	windir := os.Getenv("WINDIR")
	if windir == "" {
		windir = `C:\Windows`
	}

	local := filepath.Join(home, "AppData", "Local")

	tempRoots := dedup([]string{
		os.TempDir(),
		os.Getenv("TEMP"),
		os.Getenv("TMP"),
		filepath.Join(local, "Temp"),
	})

	return Targets{
		TempRoots: tempRoots,
		CacheRoots: []string{
			filepath.Join(local, "Microsoft", "Windows", "INetCache"),
			filepath.Join(local, "Microsoft", "Windows", "Explorer", "thumbcache_*.db"),
			filepath.Join(windir, "Prefetch"),
			filepath.Join(windir, "SoftwareDistribution", "Download"),
		},
		BrowserCaches: map[string]string{
			"Chrome":  filepath.Join(local, "Google", "Chrome", "User Data", "Default", "Cache"),
			"Firefox": filepath.Join(local, "Mozilla", "Firefox", "Profiles", "*", "cache2"),
			"Edge":    filepath.Join(local, "Microsoft", "Edge", "User Data", "Default", "Cache"),
			"Brave":   filepath.Join(local, "BraveSoftware", "Brave-Browser", "User Data", "Default", "Cache"),
		},
		LogRoots: []string{
			filepath.Join(windir, "Logs"),
			filepath.Join(local, "Temp", "*.log"),
		},
	}
}

func dedup(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var out []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
