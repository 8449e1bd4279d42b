package gaudit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Association locates an audited entity: its identity and type name.
type Association struct {
	ID   any    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Record is a single audit entry. Stores own records once created; callers must not mutate them.
type Record struct {
	ID               uuid.UUID      `json:"id"`
	AssociationChain []Association  `json:"association_chain"`
	Scope            string         `json:"scope"`
	Action           Action         `json:"action"`
	ModifierID       string         `json:"modifier_id"`
	Original         map[string]any `json:"original"`
	Modified         map[string]any `json:"modified"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Validate checks the fields every store requires before persisting.
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	if len(r.AssociationChain) == 0 {
		return fmt.Errorf("%w: empty association chain", ErrInvalidRecord)
	}
	for i, a := range r.AssociationChain {
		if isNil(a.ID) {
			return fmt.Errorf("%w: association %d has no id", ErrInvalidRecord, i)
		}
		if a.Name == "" {
			return fmt.Errorf("%w: association %d has no name", ErrInvalidRecord, i)
		}
	}
	if r.Scope == "" {
		return fmt.Errorf("%w: empty scope", ErrInvalidRecord)
	}
	if !r.Action.Valid() {
		return fmt.Errorf("%w: action %q", ErrInvalidRecord, r.Action)
	}
	if r.ModifierID == "" {
		return fmt.Errorf("%w: empty modifier id", ErrInvalidRecord)
	}
	return nil
}

// Filter selects the records of one entity within a scope.
type Filter struct {
	Scope            string
	AssociationChain []Association
}

// Matches reports whether r belongs to the filter's scope and chain.
// IDs are compared by their JSON encoding, as the JSON-backed stores do:
// 7, int64(7) and float64(7) match, "7" does not.
func (f Filter) Matches(r Record) bool {
	if r.Scope != f.Scope || len(r.AssociationChain) != len(f.AssociationChain) {
		return false
	}
	for i, a := range f.AssociationChain {
		b := r.AssociationChain[i]
		if a.Name != b.Name || !sameID(a.ID, b.ID) {
			return false
		}
	}
	return true
}

func sameID(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ja, jb)
}
