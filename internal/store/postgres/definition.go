package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"chararchive/internal/query"
	"chararchive/internal/store"
)

// FindDefinition looks the hash up in every table that carries a definition
// column, in the fixed DefinitionSources order, and returns the first match.
func (c *Client) FindDefinition(ctx context.Context, hash string) (*store.Definition, error) {
	if strings.TrimSpace(hash) == "" {
		return nil, store.ErrNotFound
	}

	for _, src := range query.DefinitionSources {
		table, ok := query.TableFor(src)
		if !ok {
			continue
		}
		sql := fmt.Sprintf(`SELECT definition FROM %s WHERE image_hash = $1 AND definition IS NOT NULL LIMIT 1`, table)

		var raw []byte
		err := c.pool.QueryRow(ctx, sql, hash).Scan(&raw)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("finding definition in %s: %w", table, err)
		}
		doc := decodeDocument(raw)
		if doc == nil {
			continue
		}
		return &store.Definition{Hash: hash, Source: src, Document: doc}, nil
	}

	return nil, store.ErrNotFound
}
