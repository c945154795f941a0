package store

import "context"

// Store is the read-only view over the pre-populated card tables.
type Store interface {
	Close(ctx context.Context) error

	SearchCards(ctx context.Context, sql string, args []any) (*Page, error)
	FindDefinition(ctx context.Context, hash string) (*Definition, error)
	InspectSchema(ctx context.Context) ([]TableReport, error)

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// DefinitionFinder is the slice of Store the image server depends on.
type DefinitionFinder interface {
	FindDefinition(ctx context.Context, hash string) (*Definition, error)
}
