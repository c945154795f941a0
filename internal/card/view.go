package card

import (
	"strings"
	"time"
	"unicode/utf8"
)

const summaryMaxRunes = 200

type Info struct {
	Added     *time.Time `json:"added,omitempty"`
	Source    Source     `json:"source"`
	Tokens    int64      `json:"tokens"`
	Stars     *int64     `json:"stars,omitempty"`
	Downloads *int64     `json:"downloads,omitempty"`
	Updated   string     `json:"updated,omitempty"`
}

// CardView is the display-ready projection of a CharacterRecord.
type CardView struct {
	Name    string   `json:"name"`
	Hash    string   `json:"hash"`
	Source  Source   `json:"source"`
	Author  string   `json:"author,omitempty"`
	Tagline string   `json:"tagline,omitempty"`
	Tags    []string `json:"tags"`
	Summary string   `json:"summary,omitempty"`
	Fields  Fields   `json:"fields"`
	Info    Info     `json:"info"`
}

func View(rec CharacterRecord) CardView {
	fields := ExtractFields(rec.Definition)
	tagline := deref(rec.Tagline)
	return CardView{
		Name:    rec.Name,
		Hash:    rec.ContentHash,
		Source:  rec.Source,
		Author:  deref(rec.Author),
		Tagline: tagline,
		Tags:    RecordTags(rec),
		Summary: Summary(fields, tagline),
		Fields:  fields,
		Info:    recordInfo(rec),
	}
}

// RecordTags prefers metadata tags and falls back to the definition.
func RecordTags(rec CharacterRecord) []string {
	if raw, ok := Lookup(rec.Metadata, "tags"); ok {
		if tags := NormalizeTags(raw); len(tags) > 0 {
			return tags
		}
	}
	for _, path := range [][]string{{"data", "tags"}, {"tags"}} {
		raw, ok := Lookup(rec.Definition, path...)
		if !ok || isEmptyValue(raw) {
			continue
		}
		return NormalizeTags(raw)
	}
	return []string{}
}

// Summary picks creator notes, then the tagline, then the first line of the
// description truncated to 200 runes.
func Summary(fields Fields, tagline string) string {
	if fields.CreatorNotes != "" {
		return fields.CreatorNotes
	}
	if tagline != "" {
		return tagline
	}
	if fields.Description == "" {
		return ""
	}
	first, _, _ := strings.Cut(fields.Description, "\n")
	if utf8.RuneCountInString(first) < summaryMaxRunes {
		return first
	}
	runes := []rune(first)
	return string(runes[:summaryMaxRunes]) + "..."
}

func recordInfo(rec CharacterRecord) Info {
	info := Info{
		Added:  rec.AddedAt,
		Source: rec.Source,
		Tokens: rec.TokenCount,
	}
	if n, ok := LookupInt(rec.Metadata, "star_count"); ok {
		info.Stars = &n
	}
	if n, ok := LookupInt(rec.Metadata, "download_count"); ok {
		info.Downloads = &n
	}
	if v, ok := Lookup(rec.Metadata, "date_last_updated"); ok {
		info.Updated = stringify(v)
	}
	return info
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
