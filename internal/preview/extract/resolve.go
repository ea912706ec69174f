package extract

import (
	"net/url"
	"os"
	"path/filepath"
)

// Resolver turns raw references into canonical source keys relative to
// the owning document's base path.
type Resolver struct {
	basePath string
}

// NewResolver creates a resolver rooted at the document's base path.
func NewResolver(basePath string) *Resolver {
	return &Resolver{basePath: basePath}
}

// BasePath returns the resolver's root directory.
func (r *Resolver) BasePath() string {
	return r.basePath
}

// Resolve maps a raw reference to a source key. If the reference names
// an existing file (absolute, or relative to the base path) the key is
// its canonical absolute path; otherwise the key is the reference's
// normalized URL form. Resolution never fails: worst case the raw
// reference is the key.
func (r *Resolver) Resolve(ref string) string {
	if ref == "" {
		return ""
	}

	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.basePath, ref)
	}
	if LocalFile(path) {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return filepath.Clean(path)
	}

	if u, err := url.Parse(ref); err == nil {
		return u.String()
	}
	return ref
}

// LocalFile reports whether key names an existing regular file.
func LocalFile(key string) bool {
	info, err := os.Stat(key)
	return err == nil && info.Mode().IsRegular()
}
