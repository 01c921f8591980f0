package repositories

import "strings"

// nullText maps empty strings onto SQL NULL for nullable text columns.
func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive substring ILIKE pattern with
// metacharacters escaped.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// totalPages computes the page count for pagination metadata.
func totalPages(totalDocs int64, limit int) int64 {
	if totalDocs == 0 || limit <= 0 {
		return 0
	}
	return (totalDocs + int64(limit) - 1) / int64(limit)
}
