package filter

import (
	"fmt"
	"strings"
)

const likeEscapeClause = "ESCAPE '\\'"

var likeEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"%", "\\%",
	"_", "\\_",
)

func escapeLikePattern(value string) string {
	return likeEscaper.Replace(value)
}

// buildLikeComparison matches columnName against value with optional
// wildcards on either side. Case-insensitive comparisons lower both sides.
func buildLikeComparison(columnName string, value interface{}, prefixWildcard, suffixWildcard, caseInsensitive bool) (string, []interface{}) {
	text := fmt.Sprint(value)
	if caseInsensitive {
		text = strings.ToLower(text)
		columnName = "LOWER(" + columnName + ")"
	}
	pattern := escapeLikePattern(text)
	if prefixWildcard {
		pattern = "%" + pattern
	}
	if suffixWildcard {
		pattern = pattern + "%"
	}

	return fmt.Sprintf("%s LIKE ? %s", columnName, likeEscapeClause), []interface{}{pattern}
}
