package app

import (
	"fmt"
	"regexp"
	"strings"
)

const maxTracedQueryLength = 512

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	// placeholderTupleRegex matches one bound row of a multi-row insert.
	placeholderTupleRegex = regexp.MustCompile(`\(\$\d+(?:, ?\$\d+)*\)`)
)

// formatDBQueryForTrace flattens whitespace and folds the row tuples of a
// batched catalog or league insert into the first row plus a count, so
// span attributes keep the ON CONFLICT suffix instead of hundreds of
// placeholders.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := foldInsertRows(queryWhitespaceRegex.ReplaceAllString(query, " "))
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}

func foldInsertRows(query string) string {
	start := strings.Index(strings.ToUpper(query), " VALUES ")
	if start < 0 {
		return query
	}
	start += len(" VALUES ")

	tuples := placeholderTupleRegex.FindAllStringIndex(query[start:], -1)
	if len(tuples) < 2 || tuples[0][0] != 0 {
		return query
	}

	// Only fold a contiguous run of tuples separated by ", ".
	end := tuples[0][1]
	rows := 1
	for _, loc := range tuples[1:] {
		if strings.TrimSpace(query[start+end:start+loc[0]]) != "," {
			break
		}
		end = loc[1]
		rows++
	}
	if rows < 2 {
		return query
	}

	first := query[start : start+tuples[0][1]]
	return query[:start] + first + fmt.Sprintf(" /* %d rows */", rows) + query[start+end:]
}
