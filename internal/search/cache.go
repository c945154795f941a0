package search

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"chararchive/internal/store"
)

// Cache holds result pages keyed by statement and parameters. Pages are
// shared between callers and must not be mutated.
type Cache interface {
	Get(key string) (*store.Page, bool)
	Add(key string, page *store.Page) bool
}

// NewCache returns an LRU whose entries expire after ttl, or nil when either
// ttl or size disables caching.
func NewCache(size int, ttl time.Duration) Cache {
	if size <= 0 || ttl <= 0 {
		return nil
	}
	return expirable.NewLRU[string, *store.Page](size, nil, ttl)
}

func cacheKey(sql string, args []any) string {
	var b strings.Builder
	b.WriteString(sql)
	for _, arg := range args {
		b.WriteByte(0)
		b.WriteString(strconv.Quote(fmt.Sprint(arg)))
	}
	return b.String()
}
