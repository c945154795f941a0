package query

import (
	"fmt"
	"strings"

	"chararchive/internal/card"
)

type matchKind int

const (
	matchSubstring matchKind = iota
	matchWord
)

// predicate is one OR'd fragment. Each fragment binds exactly one parameter.
type predicate struct {
	expr  string
	match matchKind
}

func (p predicate) render(placeholder string) string {
	if p.match == matchWord {
		return p.expr + " ~* " + placeholder
	}
	return p.expr + " ILIKE " + placeholder
}

// variant describes how one source's physical table is projected onto the
// shared nine-column row and which fragments each search field maps to.
type variant interface {
	Source() card.Source
	Table() string
	Columns() []string
	projection() string
	predicates(fields []card.SearchField) []predicate
}

// standardPredicates covers the seven tables that carry JSON definition and
// metadata columns.
var standardPredicates = map[card.SearchField][]predicate{
	card.FieldName:   {{expr: "name", match: matchSubstring}},
	card.FieldAuthor: {{expr: "author", match: matchSubstring}},
	card.FieldTags: {
		{expr: "metadata->>'tags'", match: matchWord},
		{expr: "definition->>'tags'", match: matchWord},
		{expr: "definition->'data'->>'tags'", match: matchWord},
	},
	card.FieldDescription: {
		{expr: "definition->>'description'", match: matchSubstring},
		{expr: "definition->'data'->>'description'", match: matchSubstring},
	},
	card.FieldCreatorNotes: {
		{expr: "definition->>'creator_notes'", match: matchSubstring},
		{expr: "definition->'data'->>'creator_notes'", match: matchSubstring},
	},
	card.FieldFirstMessage: {
		{expr: "definition->>'first_mes'", match: matchSubstring},
		{expr: "definition->'data'->>'first_mes'", match: matchSubstring},
	},
	card.FieldScenario: {
		{expr: "definition->>'scenario'", match: matchSubstring},
		{expr: "definition->'data'->>'scenario'", match: matchSubstring},
	},
}

// booruPredicates has no entry for scenario, creator notes or first message:
// those fields contribute nothing rather than a FALSE branch.
var booruPredicates = map[card.SearchField][]predicate{
	card.FieldName:        {{expr: "name", match: matchSubstring}},
	card.FieldAuthor:      {{expr: "author", match: matchSubstring}},
	card.FieldDescription: {{expr: "summary", match: matchSubstring}},
	card.FieldTags:        {{expr: "array_to_string(tags, ',')", match: matchWord}},
}

var tokenCountPaths = [][]string{
	{"metadata", "totalTokens"},
	{"metadata", "total_token_count"},
	{"definition", "data", "total_token_count"},
}

type standardVariant struct {
	source  card.Source
	table   string
	tagline bool
}

func (v standardVariant) Source() card.Source { return v.source }
func (v standardVariant) Table() string       { return v.table }

func (v standardVariant) Columns() []string {
	cols := []string{"name", "image_hash", "metadata", "added", "author", "definition"}
	if v.tagline {
		cols = append(cols, "tagline")
	}
	return cols
}

func (v standardVariant) projection() string {
	tagline := "NULL::text"
	if v.tagline {
		tagline = "tagline::text"
	}
	return fmt.Sprintf(
		"SELECT name, image_hash AS content_hash, '%s'::text AS source, metadata::jsonb AS metadata, added, author::text AS author, %s AS tagline, definition::jsonb AS definition, %s AS token_count FROM %s",
		v.source, tagline, tokenCountExpr(), v.table,
	)
}

func (v standardVariant) predicates(fields []card.SearchField) []predicate {
	return collect(standardPredicates, fields)
}

type booruVariant struct{}

func (booruVariant) Source() card.Source { return card.SourceBooru }
func (booruVariant) Table() string       { return "booru_character_def" }

func (booruVariant) Columns() []string {
	return []string{"name", "image_hash", "added", "author", "tagline", "summary", "tags"}
}

func (booruVariant) projection() string {
	return "SELECT name, image_hash AS content_hash, 'booru'::text AS source, " +
		"jsonb_build_object('tags', to_jsonb(tags)) AS metadata, added, author::text AS author, tagline::text AS tagline, " +
		"jsonb_build_object('name', name, 'description', summary, 'tags', to_jsonb(tags)) AS definition, " +
		"0::bigint AS token_count FROM booru_character_def"
}

func (booruVariant) predicates(fields []card.SearchField) []predicate {
	return collect(booruPredicates, fields)
}

var variants = map[card.Source]variant{
	card.SourceChub:     standardVariant{source: card.SourceChub, table: "chub_character_def"},
	card.SourceRisuAI:   standardVariant{source: card.SourceRisuAI, table: "risuai_character_def"},
	card.SourceTavern:   standardVariant{source: card.SourceTavern, table: "char_tavern_character_def"},
	card.SourceGeneric:  standardVariant{source: card.SourceGeneric, table: "generic_character_def", tagline: true},
	card.SourceLorebook: standardVariant{source: card.SourceLorebook, table: "chub_lorebook_def"},
	card.SourceBooru:    booruVariant{},
	card.SourceNyaime:   standardVariant{source: card.SourceNyaime, table: "nyaime_character_def"},
	card.SourceWebring:  standardVariant{source: card.SourceWebring, table: "webring_character_def", tagline: true},
}

// DefinitionSources is the fixed lookup order for resolving a hash to its
// definition document. Booru has no definition column and is not searched.
var DefinitionSources = []card.Source{
	card.SourceChub,
	card.SourceRisuAI,
	card.SourceTavern,
	card.SourceGeneric,
	card.SourceLorebook,
	card.SourceNyaime,
	card.SourceWebring,
}

type TableInfo struct {
	Source  card.Source
	Table   string
	Columns []string
}

// Tables returns the physical table and required columns of every source.
func Tables() []TableInfo {
	out := make([]TableInfo, 0, len(card.Sources))
	for _, src := range card.Sources {
		v := variants[src]
		out = append(out, TableInfo{Source: src, Table: v.Table(), Columns: v.Columns()})
	}
	return out
}

func TableFor(src card.Source) (string, bool) {
	v, ok := variants[src]
	if !ok {
		return "", false
	}
	return v.Table(), true
}

func collect(table map[card.SearchField][]predicate, fields []card.SearchField) []predicate {
	var out []predicate
	for _, field := range card.SearchFields {
		if !containsField(fields, field) {
			continue
		}
		out = append(out, table[field]...)
	}
	return out
}

func containsField(fields []card.SearchField, field card.SearchField) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}

// tokenCountExpr casts only digit strings that fit a bigint so one malformed
// row falls through instead of failing the statement.
func tokenCountExpr() string {
	parts := make([]string, 0, len(tokenCountPaths)+1)
	for _, path := range tokenCountPaths {
		expr := jsonTextPath(path)
		parts = append(parts, fmt.Sprintf("CASE WHEN %s ~ '^[0-9]{1,18}$' THEN (%s)::bigint END", expr, expr))
	}
	parts = append(parts, "0")
	return "COALESCE(" + strings.Join(parts, ", ") + ")"
}

// jsonTextPath renders ["definition","data","x"] as definition->'data'->>'x'.
func jsonTextPath(path []string) string {
	var b strings.Builder
	b.WriteString(path[0])
	rest := path[1:]
	for i, key := range rest {
		if i == len(rest)-1 {
			b.WriteString("->>")
		} else {
			b.WriteString("->")
		}
		b.WriteString("'" + key + "'")
	}
	return b.String()
}
