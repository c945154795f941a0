package card

type Fields struct {
	Description  string `json:"description,omitempty"`
	CreatorNotes string `json:"creator_notes,omitempty"`
	FirstMessage string `json:"first_message,omitempty"`
	Scenario     string `json:"scenario,omitempty"`
}

// Paths are tried top to bottom; data.* (card spec v2) wins over the flat v1
// keys. Older cards use first_mes, newer exports first_message.
var (
	descriptionPaths = [][]string{
		{"data", "description"},
		{"description"},
		{"personality"},
	}
	creatorNotesPaths = [][]string{
		{"data", "creator_notes"},
		{"creator_notes"},
	}
	firstMessagePaths = [][]string{
		{"data", "first_message"},
		{"first_message"},
		{"data", "first_mes"},
		{"first_mes"},
	}
	scenarioPaths = [][]string{
		{"data", "scenario"},
		{"scenario"},
	}
)

func ExtractFields(definition Document) Fields {
	return Fields{
		Description:  firstString(definition, descriptionPaths),
		CreatorNotes: firstString(definition, creatorNotesPaths),
		FirstMessage: firstString(definition, firstMessagePaths),
		Scenario:     firstString(definition, scenarioPaths),
	}
}

func firstString(doc Document, paths [][]string) string {
	if doc == nil {
		return ""
	}
	for _, path := range paths {
		if s, ok := LookupString(doc, path...); ok {
			return s
		}
	}
	return ""
}
