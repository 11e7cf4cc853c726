// Package mission implements the mission lifecycle engine: creating,
// completing, editing and deleting dispatch missions while keeping the
// car and driver aggregate counters consistent.
//
// The sentinel errors below are the engine's taxonomy. Handlers compare
// with errors.Is and translate them into HTTP statuses; everything else
// is a dependency failure.
package mission

import "errors"

// ErrNotFound is returned when the referenced mission, car or driver
// record does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned for a missing required field or a value
// outside its enum. No state is changed.
var ErrValidation = errors.New("validation failed")

// ErrDuplicateOrder is returned when creating a mission whose order
// number is already taken.
var ErrDuplicateOrder = errors.New("a mission with this order number already exists")

// ErrUnavailable is returned when the car or driver referenced by a new
// mission is missing or not available for booking.
var ErrUnavailable = errors.New("not available")

// ErrAlreadyExists is returned when creating a car or driver whose
// business key is already taken.
var ErrAlreadyExists = errors.New("already exists")

// ErrInvalidMileage is returned when a return odometer reading does not
// exceed the departure reading, which would make the distance zero or
// negative.
var ErrInvalidMileage = errors.New("km retour must be greater than km depart")

// ErrTemporalViolation is returned when a return timestamp is earlier
// than the departure timestamp.
var ErrTemporalViolation = errors.New("return time must not be before departure time")

// ErrDependency is returned when the record store or the document
// renderer fails. The operation may have partially applied; see the
// wrapped error for the failing write.
var ErrDependency = errors.New("dependency failure")
