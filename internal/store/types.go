package store

import (
	"errors"

	"chararchive/internal/card"
)

var ErrNotFound = errors.New("not found")

// Page is one window of a federated search. Total counts every match
// before limit and offset were applied.
type Page struct {
	Records []card.CharacterRecord
	Total   int64
}

type Definition struct {
	Hash     string
	Source   card.Source
	Document card.Document
}

type TableReport struct {
	Source  card.Source
	Table   string
	Exists  bool
	Columns []string
	Missing []string
}
