// Package ident handles PostgreSQL identifiers that may be schema-qualified and quoted.
package ident

import (
	"strings"
)

// SplitQualified splits a potentially schema-qualified identifier into its
// unquoted parts. Dots inside double quotes do not split; "" is an escaped quote.
func SplitQualified(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var (
		parts    []string
		cur      strings.Builder
		inQuotes bool
	)
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; {
		case r == '"' && inQuotes && i+1 < len(runes) && runes[i+1] == '"':
			cur.WriteRune('"')
			i++
		case r == '"':
			inQuotes = !inQuotes
		case r == '.' && !inQuotes:
			parts = append(parts, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(parts, strings.TrimSpace(cur.String()))
}

// QuoteQualified renders parts as a quoted, dot-joined SQL identifier.
func QuoteQualified(parts []string) string {
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return ""
		}
		quoted = append(quoted, Quote(p))
	}
	return strings.Join(quoted, ".")
}

// Quote safely quotes a single identifier part.
func Quote(part string) string {
	return `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
}

// BaseTableName returns the last segment of a qualified identifier.
func BaseTableName(s string) string {
	parts := SplitQualified(s)
	if len(parts) == 0 {
		return strings.TrimSpace(s)
	}
	return parts[len(parts)-1]
}
