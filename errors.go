package gaudit

import (
	"errors"
)

var (
	// ErrNoModifier is returned when an audit is attempted without a modifier in context.
	ErrNoModifier = errors.New("gaudit: no modifier in context")

	// ErrInvalidRecord is returned by stores that reject a record.
	ErrInvalidRecord = errors.New("gaudit: invalid record")

	// ErrMissingChanges is returned when an update is audited for an entity that does not track changes.
	ErrMissingChanges = errors.New("gaudit: entity does not provide changes")

	// ErrUnknownAction is returned for an action outside create, update and destroy.
	ErrUnknownAction = errors.New("gaudit: unknown action")
)
