package query

import (
	"regexp"
	"strings"
)

// Op is the kind of data-changing statement.
type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// DML describes a recognized data-changing statement.
type DML struct {
	Op           Op
	Table        string // possibly schema-qualified
	HasReturning bool
}

var (
	reInsert    = regexp.MustCompile(`(?is)^\s*(?:with\b.*?\)\s*)?insert\s+into\s+([^\s(]+)`)
	reUpdate    = regexp.MustCompile(`(?is)^\s*(?:with\b.*?\)\s*)?update\s+(?:only\s+)?([^\s]+)(?:\s+(?:as\s+)?[^\s]+)?\s+set\b`)
	reDelete    = regexp.MustCompile(`(?is)^\s*(?:with\b.*?\)\s*)?delete\s+from\s+(?:only\s+)?([^\s;]+)`)
	reReturning = regexp.MustCompile(`(?is)\breturning\b`)
)

// ParseDML attempts to recognize a single top-level DML and return its metadata.
func ParseDML(q string) (DML, bool) {
	qs := strings.TrimSpace(q)
	for _, p := range []struct {
		op Op
		re *regexp.Regexp
	}{
		{OpInsert, reInsert},
		{OpUpdate, reUpdate},
		{OpDelete, reDelete},
	} {
		if m := p.re.FindStringSubmatch(qs); len(m) == 2 {
			return DML{Op: p.op, Table: strings.TrimRight(m[1], ",;"), HasReturning: reReturning.MatchString(qs)}, true
		}
	}
	return DML{}, false
}
