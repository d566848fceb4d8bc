// Package locator turns user input into something the demuxer can open:
// either a remote URL passed through untouched or a local path made
// absolute and checked for existence up front, so open failures surface
// before any device is acquired.
package locator

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// remoteSchemes are the URL schemes handed to the demuxer as-is. Anything
// else, including bare "C:"-style Windows paths that url.Parse happily
// treats as a scheme, falls through to filesystem resolution.
var remoteSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"rtsp":  true,
	"rtmp":  true,
	"srt":   true,
	"udp":   true,
	"tcp":   true,
	"file":  true,
}

// Resolve maps raw user input to a demuxer-openable locator.
func Resolve(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("empty locator")
	}

	if u, err := url.Parse(raw); err == nil && remoteSchemes[u.Scheme] {
		if u.Scheme == "file" {
			return resolvePath(u.Path)
		}
		return raw, nil
	}

	return resolvePath(raw)
}

func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("locating %q: %w", p, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("locator %q is a directory", p)
	}
	return abs, nil
}
