package recommend

import "strings"

// Match returns the subset of the specialty's keywords that occur as a
// substring of the query, case-insensitively and in table order. It is
// deterministic and has no side effects.
func Match(query, specialty string) []string {
	keywords := specialtyKeywords[specialty]
	if len(keywords) == 0 {
		return nil
	}

	q := strings.ToLower(query)

	var matched []string
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}
