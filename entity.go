package gaudit

import (
	"reflect"
)

// SnapshotProvider exposes the current attribute values of an entity.
type SnapshotProvider interface {
	Attributes() map[string]any
}

// ChangeProvider exposes the attributes changed by a pending update.
type ChangeProvider interface {
	Changes() map[string]Change
}

// Entity is an auditable entity.
type Entity interface {
	SnapshotProvider
	AuditID() any
}

// TrackedEntity is an entity that also knows its pending changes.
type TrackedEntity interface {
	Entity
	ChangeProvider
}

// TypeNamer provides a custom type name for the association chain.
type TypeNamer interface {
	AuditTypeName() string
}

// OptionsProvider lets an entity carry its own audit options.
type OptionsProvider interface {
	AuditOptions() Options
}

// Options configures how an entity type is audited.
type Options struct {
	Scope           string   `yaml:"scope"`
	ExcludedColumns []string `yaml:"excluded_columns"`
	// ExcludeOnDestroy applies ExcludedColumns to destroy records as well.
	// By default destroy captures the full final snapshot.
	ExcludeOnDestroy bool `yaml:"exclude_on_destroy"`
}

// TypeName returns the name recorded in the association chain for e:
// AuditTypeName when implemented, otherwise the Go type name.
func TypeName(e any) string {
	if e == nil {
		return ""
	}
	if n, ok := e.(TypeNamer); ok {
		return n.AuditTypeName()
	}
	typ := reflect.TypeOf(e)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ.Name()
}
