package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"chararchive/internal/card"
	"chararchive/internal/images"
	"chararchive/internal/search"
	"chararchive/internal/store"
)

// Searcher runs a federated card search.
type Searcher interface {
	Search(ctx context.Context, spec card.SearchSpec) (*search.Result, error)
}

type Server struct {
	searcher Searcher
	defs     store.DefinitionFinder
	linker   images.Linker
	mcp      *sdk.Server
}

func NewServer(searcher Searcher, defs store.DefinitionFinder, linker images.Linker, version string) *Server {
	s := &Server{
		searcher: searcher,
		defs:     defs,
		linker:   linker,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "chararchive",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
