package card

import (
	"encoding/json"
	"strings"
)

// NormalizeTags turns the tag shapes seen across sources (list, JSON-encoded
// list, comma string, scalar) into an ordered list of display strings.
// Duplicates are kept in source order.
func NormalizeTags(raw any) []string {
	var items []any
	switch v := raw.(type) {
	case nil:
		return []string{}
	case []any:
		items = v
	case []string:
		items = make([]any, 0, len(v))
		for _, s := range v {
			items = append(items, s)
		}
	case string:
		items = splitTagString(v)
	default:
		items = []any{v}
	}

	tags := make([]string, 0, len(items))
	for _, item := range items {
		tag := cleanTag(stringify(item))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

func splitTagString(s string) []any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parsed []any
	if err := json.Unmarshal([]byte(s), &parsed); err == nil {
		return parsed
	}
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		items := make([]any, 0, len(parts))
		for _, part := range parts {
			items = append(items, part)
		}
		return items
	}
	return []any{s}
}

func cleanTag(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, `"`, "")
	return strings.TrimSpace(s)
}
