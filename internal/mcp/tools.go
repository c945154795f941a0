package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"chararchive/internal/card"
	"chararchive/internal/query"
	"chararchive/internal/store"
)

type SearchCardsInput struct {
	Query     string   `json:"query,omitempty" jsonschema:"search text; empty browses every card"`
	Sources   []string `json:"sources,omitempty" jsonschema:"sources to search; chub, risuai, tavern and lorebook when omitted"`
	Fields    []string `json:"fields,omitempty" jsonschema:"fields to match; name, tags, description and creator_notes when omitted"`
	Sort      string   `json:"sort,omitempty" jsonschema:"newest, oldest, name, tokens_desc or tokens_asc"`
	MinTokens int      `json:"min_tokens,omitempty" jsonschema:"minimum token count"`
	MaxTokens int      `json:"max_tokens,omitempty" jsonschema:"maximum token count; unbounded when zero"`
	Limit     int      `json:"limit,omitempty" jsonschema:"page size"`
	Offset    int      `json:"offset,omitempty" jsonschema:"page offset"`
}

type HashInput struct {
	Hash string `json:"hash" jsonschema:"content hash of the card image"`
}

type ListSourcesInput struct{}

type CardOutput struct {
	Name         string   `json:"name"`
	Hash         string   `json:"hash"`
	Source       string   `json:"source"`
	Author       string   `json:"author,omitempty"`
	Tags         []string `json:"tags"`
	Summary      string   `json:"summary,omitempty"`
	Description  string   `json:"description,omitempty"`
	FirstMessage string   `json:"first_message,omitempty"`
	Scenario     string   `json:"scenario,omitempty"`
	Added        string   `json:"added,omitempty"`
	Tokens       int64    `json:"tokens"`
	Stars        *int64   `json:"stars,omitempty"`
	Downloads    *int64   `json:"downloads,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	ImagePath    string   `json:"image_path,omitempty"`
}

type SearchCardsOutput struct {
	Performed bool         `json:"performed"`
	Total     int64        `json:"total"`
	Limit     int          `json:"limit"`
	Offset    int          `json:"offset"`
	Cards     []CardOutput `json:"cards"`
}

type ResolveImageOutput struct {
	Found  bool     `json:"found"`
	Path   string   `json:"path,omitempty"`
	URL    string   `json:"url,omitempty"`
	Probed []string `json:"probed"`
}

type DefinitionOutput struct {
	Hash       string         `json:"hash"`
	Source     string         `json:"source"`
	Definition map[string]any `json:"definition"`
}

type SourceOutput struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Table string `json:"table"`
}

type SortOutput struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

type ListSourcesOutput struct {
	Sources []SourceOutput `json:"sources"`
	Fields  []string       `json:"fields"`
	Sorts   []SortOutput   `json:"sorts"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_cards",
		Description: "Search character cards across every archive source",
	}, s.handleSearchCards)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "resolve_image",
		Description: "Locate the image file stored for a content hash",
	}, s.handleResolveImage)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_definition",
		Description: "Return the character card definition for a content hash",
	}, s.handleGetDefinition)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_sources",
		Description: "List searchable sources, fields and sort modes",
	}, s.handleListSources)
}

func (s *Server) handleSearchCards(ctx context.Context, req *sdk.CallToolRequest, input SearchCardsInput) (*sdk.CallToolResult, SearchCardsOutput, error) {
	spec, err := specFromInput(input)
	if err != nil {
		return nil, SearchCardsOutput{}, err
	}
	result, err := s.searcher.Search(ctx, spec)
	if err != nil {
		return nil, SearchCardsOutput{}, err
	}

	output := SearchCardsOutput{
		Performed: result.Performed,
		Total:     result.Total,
		Limit:     result.Limit,
		Offset:    result.Offset,
		Cards:     make([]CardOutput, 0, len(result.Records)),
	}
	for _, rec := range result.Records {
		loc, url := s.linker.Link(rec.ContentHash)
		out := cardOutputFromView(card.View(rec))
		out.ImageURL = url
		out.ImagePath = loc.Path
		output.Cards = append(output.Cards, out)
	}
	return nil, output, nil
}

func (s *Server) handleResolveImage(ctx context.Context, req *sdk.CallToolRequest, input HashInput) (*sdk.CallToolResult, ResolveImageOutput, error) {
	if input.Hash == "" {
		return nil, ResolveImageOutput{}, fmt.Errorf("hash is required")
	}
	loc, url := s.linker.Link(input.Hash)
	return nil, ResolveImageOutput{
		Found:  loc.Found(),
		Path:   loc.Path,
		URL:    url,
		Probed: loc.Probed,
	}, nil
}

func (s *Server) handleGetDefinition(ctx context.Context, req *sdk.CallToolRequest, input HashInput) (*sdk.CallToolResult, DefinitionOutput, error) {
	if input.Hash == "" {
		return nil, DefinitionOutput{}, fmt.Errorf("hash is required")
	}
	def, err := s.defs.FindDefinition(ctx, input.Hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil, DefinitionOutput{}, fmt.Errorf("definition not found")
	}
	if err != nil {
		return nil, DefinitionOutput{}, err
	}
	return nil, DefinitionOutput{
		Hash:       def.Hash,
		Source:     string(def.Source),
		Definition: def.Document,
	}, nil
}

func (s *Server) handleListSources(ctx context.Context, req *sdk.CallToolRequest, input ListSourcesInput) (*sdk.CallToolResult, ListSourcesOutput, error) {
	out := ListSourcesOutput{
		Sources: make([]SourceOutput, 0, len(card.Sources)),
		Fields:  make([]string, 0, len(card.SearchFields)),
		Sorts:   make([]SortOutput, 0, len(card.SortModes)),
	}
	for _, info := range query.Tables() {
		out.Sources = append(out.Sources, SourceOutput{
			Name:  string(info.Source),
			Label: info.Source.Label(),
			Table: info.Table,
		})
	}
	for _, field := range card.SearchFields {
		out.Fields = append(out.Fields, string(field))
	}
	for _, mode := range card.SortModes {
		out.Sorts = append(out.Sorts, SortOutput{Name: string(mode), Label: mode.Label()})
	}
	return nil, out, nil
}

func cardOutputFromView(view card.CardView) CardOutput {
	out := CardOutput{
		Name:         view.Name,
		Hash:         view.Hash,
		Source:       string(view.Source),
		Author:       view.Author,
		Tags:         append([]string{}, view.Tags...),
		Summary:      view.Summary,
		Description:  view.Fields.Description,
		FirstMessage: view.Fields.FirstMessage,
		Scenario:     view.Fields.Scenario,
		Tokens:       view.Info.Tokens,
		Stars:        view.Info.Stars,
		Downloads:    view.Info.Downloads,
	}
	if view.Info.Added != nil {
		out.Added = view.Info.Added.UTC().Format(time.RFC3339)
	}
	return out
}

func specFromInput(input SearchCardsInput) (card.SearchSpec, error) {
	spec := card.SearchSpec{
		QueryText: input.Query,
		Sources:   card.DefaultSources,
		Fields:    card.DefaultFields,
		TokenRange: card.TokenRange{
			Min:       input.MinTokens,
			Max:       input.MaxTokens,
			Unlimited: input.MaxTokens == 0,
		},
		Limit:  input.Limit,
		Offset: input.Offset,
	}

	if len(input.Sources) > 0 {
		spec.Sources = make([]card.Source, 0, len(input.Sources))
		for _, raw := range input.Sources {
			src, err := card.ParseSource(raw)
			if err != nil {
				return card.SearchSpec{}, err
			}
			spec.Sources = append(spec.Sources, src)
		}
	}
	if len(input.Fields) > 0 {
		spec.Fields = make([]card.SearchField, 0, len(input.Fields))
		for _, raw := range input.Fields {
			field, err := card.ParseSearchField(raw)
			if err != nil {
				return card.SearchSpec{}, err
			}
			spec.Fields = append(spec.Fields, field)
		}
	}

	sort, err := card.ParseSortMode(input.Sort)
	if err != nil {
		return card.SearchSpec{}, err
	}
	spec.Sort = sort
	return spec, nil
}
