package metadata

import (
	"strings"

	"github.com/tstenner/liblsl/internal/model"
)

// MatchesQuery evaluates the minimal XPath-like query grammar this
// collaborator supports: one or more `name='X'` / `type='X'` clauses
// joined by `and` / `or` (left to right, `and` binding tighter than
// `or`). Full XPath predicate support is out of this module's scope
// (spec.md §1 Non-goals); this is enough to drive discovery by name or
// type, which is what every example and test in the spec actually
// queries by.
func MatchesQuery(info *model.StreamInfo, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	orTerms := splitTopLevel(query, " or ")
	for _, term := range orTerms {
		if evalAndTerm(info, term) {
			return true
		}
	}
	return false
}

func evalAndTerm(info *model.StreamInfo, term string) bool {
	andClauses := splitTopLevel(term, " and ")
	for _, clause := range andClauses {
		if !evalClause(info, clause) {
			return false
		}
	}
	return true
}

func splitTopLevel(s, sep string) []string {
	parts := strings.Split(s, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func evalClause(info *model.StreamInfo, clause string) bool {
	clause = strings.TrimSpace(clause)
	switch {
	case strings.HasPrefix(clause, "name="):
		return info.Name == quotedValue(clause[len("name="):])
	case strings.HasPrefix(clause, "type="):
		return info.Type == quotedValue(clause[len("type="):])
	case strings.HasPrefix(clause, "source_id="):
		return info.SourceID == quotedValue(clause[len("source_id="):])
	default:
		return false
	}
}

func quotedValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
