package card

import (
	"errors"
	"fmt"
	"strings"
)

type Source string

const (
	SourceChub     Source = "chub"
	SourceRisuAI   Source = "risuai"
	SourceTavern   Source = "tavern"
	SourceGeneric  Source = "generic"
	SourceLorebook Source = "lorebook"
	SourceBooru    Source = "booru"
	SourceNyaime   Source = "nyaime"
	SourceWebring  Source = "webring"
)

// Sources lists every known source in the order subqueries are emitted.
var Sources = []Source{
	SourceChub,
	SourceRisuAI,
	SourceTavern,
	SourceGeneric,
	SourceLorebook,
	SourceBooru,
	SourceNyaime,
	SourceWebring,
}

var sourceLabels = map[Source]string{
	SourceChub:     "Chub.ai",
	SourceRisuAI:   "RisuAI",
	SourceTavern:   "Tavern",
	SourceGeneric:  "Generic",
	SourceLorebook: "Lorebooks",
	SourceBooru:    "Booru",
	SourceNyaime:   "Nyaime",
	SourceWebring:  "Webring",
}

var sourceAliases = map[string]Source{
	"char_tavern":   SourceTavern,
	"chub_lorebook": SourceLorebook,
}

type SearchField string

const (
	FieldName         SearchField = "name"
	FieldAuthor       SearchField = "author"
	FieldTags         SearchField = "tags"
	FieldDescription  SearchField = "description"
	FieldCreatorNotes SearchField = "creator_notes"
	FieldFirstMessage SearchField = "first_message"
	FieldScenario     SearchField = "scenario"
)

// SearchFields is the fixed order in which predicates and their parameters
// are emitted.
var SearchFields = []SearchField{
	FieldName,
	FieldAuthor,
	FieldTags,
	FieldDescription,
	FieldCreatorNotes,
	FieldFirstMessage,
	FieldScenario,
}

var fieldAliases = map[string]SearchField{
	"first_mes": FieldFirstMessage,
	"summary":   FieldDescription,
}

type SortMode string

const (
	SortNewest     SortMode = "newest"
	SortOldest     SortMode = "oldest"
	SortName       SortMode = "name"
	SortTokensDesc SortMode = "tokens_desc"
	SortTokensAsc  SortMode = "tokens_asc"
)

// Default selections when a caller names no sources or fields.
var (
	DefaultSources = []Source{SourceChub, SourceRisuAI, SourceTavern, SourceLorebook}
	DefaultFields  = []SearchField{FieldName, FieldTags, FieldDescription, FieldCreatorNotes}
)

var SortModes = []SortMode{SortNewest, SortOldest, SortName, SortTokensDesc, SortTokensAsc}

var sortLabels = map[SortMode]string{
	SortNewest:     "Neueste zuerst",
	SortOldest:     "Älteste zuerst",
	SortName:       "Name (A-Z)",
	SortTokensDesc: "Token Count (Viel)",
	SortTokensAsc:  "Token Count (Wenig)",
}

var (
	ErrUnknownSource = errors.New("unknown source")
	ErrUnknownField  = errors.New("unknown search field")
	ErrUnknownSort   = errors.New("unknown sort mode")
)

func ParseSource(s string) (Source, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if alias, ok := sourceAliases[key]; ok {
		return alias, nil
	}
	for _, src := range Sources {
		if string(src) == key {
			return src, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

func (s Source) Label() string {
	if label, ok := sourceLabels[s]; ok {
		return label
	}
	return string(s)
}

func ParseSearchField(s string) (SearchField, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if alias, ok := fieldAliases[key]; ok {
		return alias, nil
	}
	for _, f := range SearchFields {
		if string(f) == key {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// ParseSortMode accepts the identifier or the display label.
func ParseSortMode(s string) (SortMode, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return SortNewest, nil
	}
	for _, mode := range SortModes {
		if strings.EqualFold(string(mode), trimmed) || sortLabels[mode] == trimmed {
			return mode, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
}

func (m SortMode) Label() string {
	if label, ok := sortLabels[m]; ok {
		return label
	}
	return string(m)
}
