// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import "errors"

// Domain-specific errors for persistence outcomes the approval flow branches on.
var (
	// ErrBusinessNotFound is returned when no business matches the given id.
	ErrBusinessNotFound = errors.New("business not found")
	// ErrProfileNotFound is returned when no profile exists for an identity.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrPartnerNotFound is returned when no partnership links the identity to the business.
	ErrPartnerNotFound = errors.New("partner not found")
	// ErrAlreadyExists is returned by inserts that hit a uniqueness constraint.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrResourceInUse is returned by deletes refused because another row still references the record.
	ErrResourceInUse = errors.New("record still referenced")
)
