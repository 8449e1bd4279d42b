package gaudit

import (
	"fmt"
)

// Subject is the entity context a record is built from.
type Subject struct {
	ID       any
	TypeName string
	Snapshot SnapshotProvider
	Changes  ChangeProvider // update only
}

// Build assembles the audit record for action. It has no side effects;
// ID and CreatedAt are left for the caller to assign.
func Build(action Action, s Subject, opts Options, modifierID string) (Record, error) {
	changes, err := changesFor(action, s, opts)
	if err != nil {
		return Record{}, err
	}
	original, modified := Diff(changes)
	return Record{
		AssociationChain: []Association{{ID: s.ID, Name: s.TypeName}},
		Scope:            opts.Scope,
		Action:           action,
		ModifierID:       modifierID,
		Original:         original,
		Modified:         modified,
	}, nil
}

func changesFor(action Action, s Subject, opts Options) (map[string]Change, error) {
	switch action {
	case ActionCreate:
		return except(snapshotChanges(attributesOf(s.Snapshot)), opts.ExcludedColumns), nil
	case ActionUpdate:
		if s.Changes == nil {
			return nil, ErrMissingChanges
		}
		return except(s.Changes.Changes(), opts.ExcludedColumns), nil
	case ActionDestroy:
		changes := snapshotChanges(attributesOf(s.Snapshot))
		if opts.ExcludeOnDestroy {
			changes = except(changes, opts.ExcludedColumns)
		}
		return changes, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

func attributesOf(p SnapshotProvider) map[string]any {
	if p == nil {
		return nil
	}
	return p.Attributes()
}
