package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"chararchive/internal/card"
	"chararchive/internal/query"
	"chararchive/internal/store"
)

// Querier is the store capability search needs.
type Querier interface {
	SearchCards(ctx context.Context, sql string, args []any) (*store.Page, error)
}

type Options struct {
	DefaultLimit int
	MaxLimit     int
	Cache        Cache
	Logger       *zap.Logger
}

type Service struct {
	db           Querier
	cache        Cache
	logger       *zap.Logger
	defaultLimit int
	maxLimit     int
}

type Result struct {
	// Performed is false when the selection disabled search; no statement
	// was built and the store was not touched.
	Performed bool
	Cached    bool
	Records   []card.CharacterRecord
	Total     int64
	Limit     int
	Offset    int
	Statement query.Statement
}

// QueryError carries the failing statement for diagnostic display.
type QueryError struct {
	Statement string
	Args      []any
	Err       error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("executing search: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func NewService(db Querier, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaultLimit := opts.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	maxLimit := opts.MaxLimit
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &Service{
		db:           db,
		cache:        opts.Cache,
		logger:       logger,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

func (s *Service) Search(ctx context.Context, spec card.SearchSpec) (*Result, error) {
	if !spec.Enabled() {
		return &Result{Records: []card.CharacterRecord{}}, nil
	}

	spec.Limit = s.clampLimit(spec.Limit)
	if spec.Offset < 0 {
		spec.Offset = 0
	}

	stmt, err := query.Build(spec)
	if err != nil {
		return nil, fmt.Errorf("building search query: %w", err)
	}

	result := &Result{
		Performed: true,
		Limit:     spec.Limit,
		Offset:    spec.Offset,
		Statement: stmt,
	}

	key := cacheKey(stmt.SQL, stmt.Args)
	if s.cache != nil {
		if page, ok := s.cache.Get(key); ok {
			result.Cached = true
			result.Records = page.Records
			result.Total = page.Total
			s.logger.Debug("search cache hit", zap.Int("records", len(page.Records)))
			return result, nil
		}
	}

	s.logger.Debug("executing search",
		zap.String("sql", stmt.SQL),
		zap.Int("args", len(stmt.Args)),
		zap.Int("branches", len(stmt.Branches)))

	page, err := s.db.SearchCards(ctx, stmt.SQL, stmt.Args)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err), zap.String("sql", stmt.SQL))
		return nil, &QueryError{Statement: stmt.SQL, Args: stmt.Args, Err: err}
	}
	if page == nil {
		page = &store.Page{}
	}
	if page.Records == nil {
		page.Records = []card.CharacterRecord{}
	}
	if s.cache != nil {
		s.cache.Add(key, page)
	}

	result.Records = page.Records
	result.Total = page.Total
	return result, nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}
