// Package store implements the record store: the persisted user collection,
// the session mirror and the certificate issuance log. This file defines the
// sentinel error values shared by every operation. Handlers match on these
// to choose HTTP status codes, so new failure modes should be added here
// rather than returned as ad-hoc errors.
package store

import "errors"

// ErrUserNotFound is returned when no record matches the requested user id.
var ErrUserNotFound = errors.New("user not found")

// ErrVaccineNotFound is returned when the parent record exists but holds no
// vaccine with the requested id.
var ErrVaccineNotFound = errors.New("vaccine not found")

// ErrDependentNotFound is returned when no record matches both the dependent
// id and the owning account id.
var ErrDependentNotFound = errors.New("dependent not found")

// ErrMedicalCenterNotFound is returned when the requested id does not belong
// to a medical_center record.
var ErrMedicalCenterNotFound = errors.New("medical center not found")

// ErrProfessionalNotFound is returned when the medical center exists but its
// roster holds no professional with the requested id.
var ErrProfessionalNotFound = errors.New("professional not found")

// ErrDuplicateEmail rejects a registration whose email is already taken by
// another record that carries one.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrDuplicateDocument rejects a registration whose document id is already
// taken. Document ids are unique across all records, dependents included.
var ErrDuplicateDocument = errors.New("document already registered")

// ErrInvalidCredentials is returned on login when no record matches the
// identifier/password pair. The same value is used for unknown identifiers
// and wrong passwords so the response does not leak which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrValidation wraps a missing-required-field failure on create operations.
// Callers wrap it with the field name: fmt.Errorf("%w: documentId", ErrValidation).
var ErrValidation = errors.New("validation failed")
