package gaudit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mickamy/gaudit/internal/query"
)

// Statement describes a data-changing SQL statement.
type Statement struct {
	Action    Action
	Table     string // possibly schema-qualified
	Returning bool
}

var opActions = map[query.Op]Action{
	query.OpInsert: ActionCreate,
	query.OpUpdate: ActionUpdate,
	query.OpDelete: ActionDestroy,
}

// ParseStatement recognizes a top-level INSERT, UPDATE or DELETE and maps it
// to the action it should be audited as. Hosts that capture affected rows with
// RETURNING * can turn them into Row entities:
//
//	INSERT: Row{Table: st.Table, After: returned}
//	UPDATE: Row{Table: st.Table, Before: selected, After: returned}
//	DELETE: Row{Table: st.Table, Before: returned}
func ParseStatement(q string) (Statement, bool) {
	dml, ok := query.ParseDML(q)
	if !ok {
		return Statement{}, false
	}
	return Statement{Action: opActions[dml.Op], Table: dml.Table, Returning: dml.HasReturning}, true
}

// ScanRows consumes rows into column maps and closes them.
// Columns the driver reports as JSON or JSONB are decoded; other byte
// columns become strings.
func ScanRows(rows *sql.Rows) ([]map[string]any, error) {
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(types))
	isJSON := make([]bool, len(types))
	for i, ct := range types {
		cols[i] = ct.Name()
		switch strings.ToUpper(ct.DatabaseTypeName()) {
		case "JSON", "JSONB":
			isJSON[i] = true
		}
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		m, err := rowToMap(cols, isJSON, vals)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// rowToMap converts a single row (columns + values) to a map.
func rowToMap(cols []string, isJSON []bool, vals []any) (map[string]any, error) {
	m := make(map[string]any, len(cols))
	for i, c := range cols {
		v := vals[i]
		if isJSON[i] {
			if s, ok := v.(string); ok {
				v = []byte(s)
			}
		}
		b, ok := v.([]byte)
		if !ok {
			m[c] = v
			continue
		}
		if !isJSON[i] {
			m[c] = string(b)
			continue
		}
		var js any
		if err := json.Unmarshal(b, &js); err != nil {
			return nil, fmt.Errorf("gaudit: failed to decode json column %s: %w", c, err)
		}
		m[c] = js
	}
	return m, nil
}
