package card

import "time"

// Document is a semi-structured JSON value decoded into maps, slices and
// scalars. It is treated as read-only once fetched.
type Document = map[string]any

// CharacterRecord is the normalized row every per-source subquery projects.
type CharacterRecord struct {
	Name        string
	ContentHash string
	Source      Source
	Metadata    Document
	AddedAt     *time.Time
	Author      *string
	Tagline     *string
	Definition  Document
	TokenCount  int64
}

type TokenRange struct {
	Min       int
	Max       int
	Unlimited bool
}

type SearchSpec struct {
	QueryText  string
	Sources    []Source
	Fields     []SearchField
	Sort       SortMode
	TokenRange TokenRange
	Limit      int
	Offset     int
}

// Enabled reports whether the spec would issue a query at all. An empty
// source or field selection disables search instead of matching everything.
func (s SearchSpec) Enabled() bool {
	return len(s.Sources) > 0 && len(s.Fields) > 0
}

func (s SearchSpec) HasSource(src Source) bool {
	for _, candidate := range s.Sources {
		if candidate == src {
			return true
		}
	}
	return false
}

func (s SearchSpec) HasField(field SearchField) bool {
	for _, candidate := range s.Fields {
		if candidate == field {
			return true
		}
	}
	return false
}
