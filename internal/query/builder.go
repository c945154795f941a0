package query

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"chararchive/internal/card"
)

var (
	ErrNoSources         = errors.New("no sources selected")
	ErrInvalidTokenRange = errors.New("invalid token range")
)

// Columns is the projection order of every built statement. TotalCount is
// appended by the outer query.
var Columns = []string{
	"name", "content_hash", "source", "metadata", "added",
	"author", "tagline", "definition", "token_count", "total_count",
}

// Branch is one per-source subquery together with the parameters bound to
// its placeholders, in order.
type Branch struct {
	Source card.Source
	SQL    string
	Args   []any
}

type Statement struct {
	SQL      string
	Args     []any
	Branches []Branch
}

// Build assembles the UNION ALL statement for spec. Placeholders are numbered
// $1..$n across the whole statement; each fragment and its argument are
// appended in the same step so the two can never drift apart.
func Build(spec card.SearchSpec) (Statement, error) {
	if len(spec.Sources) == 0 {
		return Statement{}, ErrNoSources
	}
	rangeClause, err := tokenRangeClause(spec.TokenRange)
	if err != nil {
		return Statement{}, err
	}
	orderBy, err := orderClause(spec.Sort)
	if err != nil {
		return Statement{}, err
	}

	var stmt Statement
	for _, src := range card.Sources {
		if !spec.HasSource(src) {
			continue
		}
		v, ok := variants[src]
		if !ok {
			return Statement{}, fmt.Errorf("%w: %q", card.ErrUnknownSource, src)
		}
		branch := buildBranch(v, spec, len(stmt.Args))
		stmt.Branches = append(stmt.Branches, branch)
		stmt.Args = append(stmt.Args, branch.Args...)
	}
	if len(stmt.Branches) == 0 {
		return Statement{}, ErrNoSources
	}

	parts := make([]string, 0, len(stmt.Branches))
	for _, b := range stmt.Branches {
		parts = append(parts, b.SQL)
	}

	var sb strings.Builder
	sb.WriteString("SELECT name, content_hash, source, metadata, added, author, tagline, definition, token_count, COUNT(*) OVER () AS total_count\nFROM (\n")
	sb.WriteString(strings.Join(parts, "\nUNION ALL\n"))
	sb.WriteString("\n) AS cards\nWHERE ")
	sb.WriteString(rangeClause)
	sb.WriteString("\nORDER BY ")
	sb.WriteString(orderBy)
	if spec.Limit > 0 {
		sb.WriteString("\nLIMIT ")
		sb.WriteString(strconv.Itoa(spec.Limit))
	}
	if spec.Offset > 0 {
		sb.WriteString("\nOFFSET ")
		sb.WriteString(strconv.Itoa(spec.Offset))
	}
	stmt.SQL = sb.String()
	return stmt, nil
}

func buildBranch(v variant, spec card.SearchSpec, offset int) Branch {
	branch := Branch{Source: v.Source(), Args: []any{}}

	var where string
	if len(spec.Fields) == 0 {
		where = "TRUE"
	} else {
		preds := v.predicates(spec.Fields)
		if len(preds) == 0 {
			where = "FALSE"
		} else {
			fragments := make([]string, 0, len(preds))
			for _, p := range preds {
				placeholder := "$" + strconv.Itoa(offset+len(branch.Args)+1)
				fragments = append(fragments, p.render(placeholder))
				branch.Args = append(branch.Args, bindValue(p.match, spec.QueryText))
			}
			where = "(" + strings.Join(fragments, " OR ") + ")"
		}
	}

	branch.SQL = v.projection() + " WHERE " + where
	return branch
}

func bindValue(kind matchKind, text string) string {
	if kind == matchWord {
		return WordPattern(text)
	}
	return SubstringPattern(text)
}

// WordPattern wraps text in Postgres word-boundary anchors so that "ntr"
// does not match inside "country".
func WordPattern(text string) string {
	return `\y` + regexp.QuoteMeta(text) + `\y`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func SubstringPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

func tokenRangeClause(r card.TokenRange) (string, error) {
	minTokens := r.Min
	if minTokens < 0 {
		minTokens = 0
	}
	if r.Unlimited {
		return "token_count >= " + strconv.Itoa(minTokens), nil
	}
	if r.Max < minTokens {
		return "", fmt.Errorf("%w: max %d below min %d", ErrInvalidTokenRange, r.Max, minTokens)
	}
	return fmt.Sprintf("token_count BETWEEN %d AND %d", minTokens, r.Max), nil
}

func orderClause(mode card.SortMode) (string, error) {
	switch mode {
	case card.SortNewest, "":
		return "added DESC NULLS LAST, name ASC", nil
	case card.SortOldest:
		return "added ASC NULLS LAST, name ASC", nil
	case card.SortName:
		return "name ASC", nil
	case card.SortTokensDesc:
		return "token_count DESC, name ASC", nil
	case card.SortTokensAsc:
		return "CASE WHEN token_count > 0 THEN 0 ELSE 1 END, token_count ASC, name ASC", nil
	}
	return "", fmt.Errorf("%w: %q", card.ErrUnknownSort, mode)
}
