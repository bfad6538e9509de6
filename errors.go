package appregistry

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrSourceUnavailable indicates a source has nothing to offer (no
	// override saved, no bundled file). Resolution moves on silently.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrInvalidImport indicates a user-supplied document could not be parsed.
	// The store is left unchanged.
	ErrInvalidImport = errors.New("invalid registry import")

	// ErrNoStorage indicates an operation needs override storage but none is configured.
	ErrNoStorage = errors.New("no override storage configured")

	// ErrUnknownKey indicates an admin operation referenced a key that is not in the model.
	ErrUnknownKey = errors.New("unknown entry key")

	// ErrLabelRequired indicates an admin form was submitted without a name.
	ErrLabelRequired = errors.New("name is required")
)
