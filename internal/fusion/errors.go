package fusion

import "errors"

var (
	// ErrNoSchemaDefinition indicates the configuration document has no schema definition.
	ErrNoSchemaDefinition = errors.New("fusion: configuration has no schema definition")

	// ErrNoClients indicates the schema definition carries no HTTP client directive.
	ErrNoClients = errors.New("fusion: no clients configured")

	// ErrNoTypes indicates the configuration document defines no object types.
	ErrNoTypes = errors.New("fusion: configuration has no types")

	// ErrTypeNotFound is returned by GetType when the type is missing or of another kind.
	ErrTypeNotFound = errors.New("fusion: type not found")

	// ErrSelectionRootNotField is returned by CreateSelection when a template without a
	// placeholder is asked to carry a selection set but its root is not a single field.
	ErrSelectionRootNotField = errors.New("fusion: template without placeholder must have a single field root")
)
