package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"chararchive/internal/card"
	"chararchive/internal/store"
)

// SearchCards runs a statement produced by the query builder. The statement
// must project the nine record columns followed by total_count.
func (c *Client) SearchCards(ctx context.Context, sql string, args []any) (*store.Page, error) {
	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("searching cards: %w", err)
	}
	defer rows.Close()

	page := &store.Page{Records: []card.CharacterRecord{}}
	for rows.Next() {
		var (
			name          *string
			hash          *string
			source        string
			metadataBytes []byte
			added         *time.Time
			definition    []byte
			rec           card.CharacterRecord
		)
		err := rows.Scan(
			&name,
			&hash,
			&source,
			&metadataBytes,
			&added,
			&rec.Author,
			&rec.Tagline,
			&definition,
			&rec.TokenCount,
			&page.Total,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning card: %w", err)
		}
		if name != nil {
			rec.Name = *name
		}
		if hash != nil {
			rec.ContentHash = *hash
		}
		rec.Source = card.Source(source)
		rec.AddedAt = added
		rec.Metadata = decodeDocument(metadataBytes)
		rec.Definition = decodeDocument(definition)
		page.Records = append(page.Records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cards: %w", err)
	}
	return page, nil
}

// decodeDocument is fail-soft: a column that is NULL, not an object, or not
// valid JSON yields a nil document. Numbers stay json.Number so integers
// beyond 2^53 are served back exactly.
func decodeDocument(data []byte) card.Document {
	if len(data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc card.Document
	if err := dec.Decode(&doc); err != nil {
		return nil
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil
	}
	return doc
}
