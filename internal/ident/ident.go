package ident

import "github.com/google/uuid"

// New returns a process-unique string identifier for a new entity.
func New() string {
	return uuid.New().String()
}
