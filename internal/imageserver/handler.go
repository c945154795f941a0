package imageserver

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"chararchive/internal/config"
	"chararchive/internal/images"
	"chararchive/internal/pngmeta"
	"chararchive/internal/store"
)

// minStemHash is the shortest bare filename accepted as a hash when the
// request path carries no hashed-data segment.
const minStemHash = 32

// Handler serves files under the content root. PNG requests are answered
// with the card definition embedded; everything else is passed through.
type Handler struct {
	root   string
	defs   store.DefinitionFinder
	logger *zap.Logger
}

func NewHandler(contentRoot string, defs store.DefinitionFinder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{root: contentRoot, defs: defs, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel := cleanRequestPath(r.URL.Path)
	if rel == "" {
		http.NotFound(w, r)
		return
	}
	if strings.HasSuffix(strings.ToLower(rel), ".png") {
		h.serveCard(w, r, rel)
		return
	}
	h.servePassthrough(w, r, rel)
}

func (h *Handler) serveCard(w http.ResponseWriter, r *http.Request, rel string) {
	stripped := rel[:len(rel)-len(".png")]

	hash, ok := HashFromPath(stripped)
	if !ok {
		http.Error(w, "could not extract image hash from url", http.StatusBadRequest)
		return
	}

	file, ok := h.firstFile(stripped, rel)
	if !ok {
		http.Error(w, "file not found on disk", http.StatusNotFound)
		return
	}

	def, err := h.defs.FindDefinition(r.Context(), hash)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, fmt.Sprintf("no character definition found for hash: %s", hash), http.StatusNotFound)
		return
	}
	if err != nil {
		h.fail(w, hash, fmt.Errorf("looking up definition: %w", err))
		return
	}

	body, err := RenderCard(file, def.Document)
	if err != nil {
		h.fail(w, hash, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

func (h *Handler) servePassthrough(w http.ResponseWriter, r *http.Request, rel string) {
	candidates := []string{rel}
	if ext := path.Ext(rel); ext != "" {
		candidates = append(candidates, strings.TrimSuffix(rel, ext))
	}
	file, ok := h.firstFile(candidates...)
	if !ok {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(file)
	if err != nil {
		h.fail(w, "", fmt.Errorf("opening image: %w", err))
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		h.fail(w, "", fmt.Errorf("reading image info: %w", err))
		return
	}
	http.ServeContent(w, r, path.Base(rel), info.ModTime(), f)
}

func (h *Handler) firstFile(rels ...string) (string, bool) {
	for _, rel := range rels {
		p := filepath.Join(h.root, filepath.FromSlash(rel))
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

func (h *Handler) fail(w http.ResponseWriter, hash string, err error) {
	h.logger.Error("serving image failed", zap.String("hash", hash), zap.Error(err))
	http.Error(w, fmt.Sprintf("error serving image: %v", err), http.StatusInternalServerError)
}

// RenderCard reads the image at file and returns it as a PNG with doc
// embedded as the character card payload.
func RenderCard(file string, doc any) ([]byte, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	out, err := pngmeta.EmbedCard(data, doc)
	if err != nil {
		return nil, fmt.Errorf("rendering card: %w", err)
	}
	return out, nil
}

// cleanRequestPath returns the request path relative to the content root,
// or "" when it names the root itself.
func cleanRequestPath(p string) string {
	cleaned := path.Clean("/" + p)
	return strings.TrimPrefix(cleaned, "/")
}

// HashFromPath recovers a content hash from a path relative to the content
// root with its extension removed.
func HashFromPath(rel string) (string, bool) {
	parts := strings.Split(rel, "/")
	name := parts[len(parts)-1]
	stem := strings.TrimSuffix(name, path.Ext(name))

	var hash string
	idx := indexOf(parts, config.HashedDataDirectory)
	if idx >= 0 {
		if idx == len(parts)-1 {
			return "", false
		}
		hash = hashFromShards(parts[idx+1:len(parts)-1], stem)
	} else if len(stem) >= minStemHash {
		hash = stem
	}

	if hash == "" || !images.SafeHash(hash) {
		return "", false
	}
	return hash, true
}

// hashFromShards joins single character shard directories with the file
// stem. A longer directory segment is the hash directory a recursive scan
// found the image in, so the stem is ignored.
func hashFromShards(shards []string, stem string) string {
	for i, seg := range shards {
		if len(seg) > 1 {
			if i == 3 {
				return strings.Join(shards[:i], "") + seg
			}
			return seg
		}
	}
	prefix := strings.Join(shards, "")
	switch {
	case len(shards) == 3:
		return prefix + stem
	case strings.HasPrefix(stem, prefix):
		// one and two level shards keep the full hash as filename
		return stem
	}
	return prefix + stem
}

func indexOf(parts []string, want string) int {
	for i, p := range parts {
		if p == want {
			return i
		}
	}
	return -1
}
