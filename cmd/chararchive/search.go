package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chararchive/internal/card"
	"chararchive/internal/images"
	"chararchive/internal/search"
)

type searchOptions struct {
	sources   []string
	fields    []string
	sort      string
	minTokens int
	maxTokens int
	unlimited bool
	limit     int
	offset    int
	debug     bool
	json      bool
}

func searchCmd() *cobra.Command {
	var opts searchOptions
	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search character cards across the selected sources",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := buildSearchSpec(opts, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return runSearch(cmd, spec, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.sources, "source", sourceNames(card.DefaultSources), "Sources to search (repeatable or comma separated)")
	cmd.Flags().StringSliceVar(&opts.fields, "field", fieldNames(card.DefaultFields), "Fields to match (repeatable or comma separated)")
	cmd.Flags().StringVar(&opts.sort, "sort", string(card.SortNewest), "Sort mode: newest, oldest, name, tokens_desc, tokens_asc")
	cmd.Flags().IntVar(&opts.minTokens, "min-tokens", 0, "Minimum token count")
	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", 0, "Maximum token count (implies a bounded range)")
	cmd.Flags().BoolVar(&opts.unlimited, "unlimited", true, "No upper token bound")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Page size (config default when zero)")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Page offset")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Show probed image paths and failing statements")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print results as JSON")
	return cmd
}

func buildSearchSpec(opts searchOptions, text string) (card.SearchSpec, error) {
	spec := card.SearchSpec{
		QueryText: strings.TrimSpace(text),
		TokenRange: card.TokenRange{
			Min:       opts.minTokens,
			Max:       opts.maxTokens,
			Unlimited: opts.unlimited && opts.maxTokens == 0,
		},
		Limit:  opts.limit,
		Offset: opts.offset,
	}
	for _, raw := range opts.sources {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		src, err := card.ParseSource(raw)
		if err != nil {
			return card.SearchSpec{}, err
		}
		spec.Sources = append(spec.Sources, src)
	}
	for _, raw := range opts.fields {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		field, err := card.ParseSearchField(raw)
		if err != nil {
			return card.SearchSpec{}, err
		}
		spec.Fields = append(spec.Fields, field)
	}
	sort, err := card.ParseSortMode(opts.sort)
	if err != nil {
		return card.SearchSpec{}, err
	}
	spec.Sort = sort
	return spec, nil
}

func runSearch(cmd *cobra.Command, spec card.SearchSpec, opts searchOptions) error {
	ctx := context.Background()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if !spec.Enabled() {
		fmt.Fprintln(os.Stdout, "Select at least one source and one field to search.")
		return nil
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	result, err := newSearchService(cfg, db, logger).Search(ctx, spec)
	if err != nil {
		var qerr *search.QueryError
		if opts.debug && errors.As(err, &qerr) {
			fmt.Fprintf(os.Stderr, "failing statement:\n%s\nparameters: %q\n", qerr.Statement, qerr.Args)
		}
		return err
	}

	resolver := newResolver(cfg)
	resolver.TraceScan = opts.debug
	linker := images.Linker{Resolver: resolver, ContentRoot: cfg.ImageRoot, BaseURL: cfg.ImageServer.ExternalURL}

	if opts.json {
		return writeSearchJSON(os.Stdout, result, linker)
	}
	writeSearchText(os.Stdout, result, linker, opts.debug)
	return nil
}

type searchJSONCard struct {
	card.CardView
	ImagePath string `json:"image_path,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

func writeSearchJSON(w io.Writer, result *search.Result, linker images.Linker) error {
	cards := make([]searchJSONCard, 0, len(result.Records))
	for _, rec := range result.Records {
		loc, url := linker.Link(rec.ContentHash)
		cards = append(cards, searchJSONCard{CardView: card.View(rec), ImagePath: loc.Path, ImageURL: url})
	}
	payload, err := json.MarshalIndent(map[string]any{
		"total":  result.Total,
		"limit":  result.Limit,
		"offset": result.Offset,
		"cached": result.Cached,
		"cards":  cards,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(w, string(payload))
	return nil
}

func writeSearchText(w io.Writer, result *search.Result, linker images.Linker, debug bool) {
	if len(result.Records) == 0 {
		fmt.Fprintln(w, "No matches found.")
		return
	}
	fmt.Fprintf(w, "%d results (showing %d from offset %d)\n", result.Total, len(result.Records), result.Offset)
	for _, rec := range result.Records {
		view := card.View(rec)
		fmt.Fprintf(w, "\n%s [%s] by %s, %d tokens\n", view.Name, view.Source.Label(), orUnknown(view.Author), view.Info.Tokens)
		if len(view.Tags) > 0 {
			fmt.Fprintf(w, "  tags: %s\n", strings.Join(view.Tags, ", "))
		}
		if view.Summary != "" {
			fmt.Fprintf(w, "  %s\n", view.Summary)
		}
		loc, url := linker.Link(rec.ContentHash)
		switch {
		case url != "":
			fmt.Fprintf(w, "  image: %s\n", url)
		case loc.Found():
			fmt.Fprintf(w, "  image: %s\n", loc.Path)
		default:
			fmt.Fprintf(w, "  image: not found (%s)\n", rec.ContentHash)
		}
		if debug && !loc.Found() {
			for _, p := range loc.Probed {
				fmt.Fprintf(w, "    probed %s\n", p)
			}
		}
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func sourceNames(sources []card.Source) []string {
	out := make([]string, 0, len(sources))
	for _, src := range sources {
		out = append(out, string(src))
	}
	return out
}

func fieldNames(fields []card.SearchField) []string {
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		out = append(out, string(field))
	}
	return out
}
