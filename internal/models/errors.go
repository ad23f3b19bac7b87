package models

import "errors"

// Errors shared by the catalog stores. Check with errors.Is.
var (
	// ErrProductionExists is returned when a production ID has already been committed.
	ErrProductionExists = errors.New("production already committed")

	// ErrUnknownItem is returned when usage is committed for an item missing from the catalog.
	ErrUnknownItem = errors.New("item not in catalog")
)
