package images

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Extensions are tried in order after the bare name at every base path.
var Extensions = []string{"", ".png", ".webp", ".jpg", ".jpeg"}

var scanExtensions = []string{".png", ".webp", ".jpg", ".jpeg"}

var ErrOutsideRoot = errors.New("path escapes content root")

type Location struct {
	// Path is empty when nothing was found.
	Path   string
	Probed []string
}

func (l Location) Found() bool {
	return l.Path != ""
}

// Resolver maps content hashes to files under a sharded store directory.
type Resolver struct {
	Root string
	// TraceScan records directories visited by the recursive fallback in
	// Location.Probed.
	TraceScan bool
}

func NewResolver(root string) *Resolver {
	return &Resolver{Root: root}
}

// BasePaths lists the shard layouts for hash, deepest first.
func (r *Resolver) BasePaths(hash string) []string {
	var bases []string
	if len(hash) > 3 {
		bases = append(bases, filepath.Join(r.Root, hash[0:1], hash[1:2], hash[2:3], hash[3:]))
	}
	if len(hash) >= 2 {
		bases = append(bases, filepath.Join(r.Root, hash[0:1], hash[1:2], hash))
	}
	if len(hash) >= 1 {
		bases = append(bases, filepath.Join(r.Root, hash[0:1], hash))
	}
	return append(bases, filepath.Join(r.Root, hash))
}

func (r *Resolver) Resolve(hash string) Location {
	loc := Location{Probed: []string{}}
	if hash == "" || !SafeHash(hash) {
		return loc
	}

	for _, base := range r.BasePaths(hash) {
		for _, ext := range Extensions {
			candidate := base + ext
			loc.Probed = append(loc.Probed, candidate)
			if isFile(candidate) {
				loc.Path = candidate
				return loc
			}
		}

		if info, err := os.Stat(base); err == nil && info.IsDir() {
			if r.TraceScan {
				loc.Probed = append(loc.Probed, base+string(filepath.Separator)+"**")
			}
			if found := scanDir(base); found != "" {
				loc.Path = found
				return loc
			}
		}
	}
	return loc
}

// SafeHash reports whether hash can be used as a path component.
func SafeHash(hash string) bool {
	if hash == "" || hash == "." || hash == ".." {
		return false
	}
	if strings.ContainsAny(hash, `/\`) || strings.Contains(hash, "..") {
		return false
	}
	return !strings.ContainsRune(hash, 0)
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func scanDir(dir string) string {
	var found string
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !hasImageExtension(d.Name()) {
			return nil
		}
		found = p
		return fs.SkipAll
	})
	return found
}

func hasImageExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range scanExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// RelPath returns p relative to contentRoot using forward slashes.
func RelPath(contentRoot, p string) (string, error) {
	rel, err := filepath.Rel(contentRoot, p)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", ErrOutsideRoot
	}
	return rel, nil
}

// URL joins the path of p under contentRoot onto baseURL. Files stored
// without an extension are addressed with ".png" so the image server embeds
// card metadata.
func URL(baseURL, contentRoot, p string) (string, error) {
	rel, err := RelPath(contentRoot, p)
	if err != nil {
		return "", err
	}
	if path.Ext(rel) == "" {
		rel += ".png"
	}
	segments := strings.Split(rel, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.Join(segments, "/"), nil
}
