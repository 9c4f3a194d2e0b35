package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity is not found.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when creating an entity whose key is already taken.
	ErrConflict = errors.New("entity already exists")
)
