package gaudit

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"

	"github.com/mickamy/gaudit/internal/ident"
)

// Row is a map-backed entity for hosts that work with raw rows, e.g. rows
// returned by INSERT/UPDATE/DELETE ... RETURNING *.
//
// Before is the row prior to the operation (nil on insert), After the row
// afterwards (nil on delete).
type Row struct {
	Table  string // possibly schema-qualified
	Before map[string]any
	After  map[string]any
}

var _ TrackedEntity = Row{}

// Attributes returns the latest known state of the row.
func (r Row) Attributes() map[string]any {
	if r.After != nil {
		return r.After
	}
	return r.Before
}

// Changes returns the columns whose values differ between Before and After.
func (r Row) Changes() map[string]Change {
	out := make(map[string]Change)
	for k, v := range r.After {
		old, ok := r.Before[k]
		if ok && reflect.DeepEqual(old, v) {
			continue
		}
		out[k] = Change{Old: old, New: v}
	}
	for k, old := range r.Before {
		if _, ok := r.After[k]; !ok {
			out[k] = Change{Old: old}
		}
	}
	return out
}

// AuditID attempts to choose a sensible primary key from the row.
func (r Row) AuditID() any {
	// Heuristics: "id" first; then "<singular>_id", else nil.
	if v, ok := r.Before["id"]; ok {
		return v
	}
	if v, ok := r.After["id"]; ok {
		return v
	}
	singularID := fmt.Sprintf("%s_id", inflection.Singular(ident.BaseTableName(r.Table)))
	if v, ok := r.Before[singularID]; ok {
		return v
	}
	if v, ok := r.After[singularID]; ok {
		return v
	}
	return nil
}

// AuditTypeName derives a type name from the table: "public.order_items" becomes "OrderItem".
func (r Row) AuditTypeName() string {
	return toCamelCase(inflection.Singular(ident.BaseTableName(r.Table)))
}

func toCamelCase(s string) string {
	var b strings.Builder
	upper := true
	for _, c := range s {
		if c == '_' || c == ' ' || c == '-' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(c))
			upper = false
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}
