package domain

import "errors"

// Error kinds for the sandbox request pipeline. Handlers map these to
// HTTP statuses; everything else is treated as an internal fault.
var (
	// ErrInvalidQuery marks a validation rejection. The wrapped reason
	// is safe to show verbatim to the end user.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrAssignmentNotFound is returned when the catalog has no entry
	// for the requested assignment id.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrProvisioning marks a failure while creating or seeding the
	// sandbox schema. This is a content or system fault, never the
	// student's; details are logged, not surfaced.
	ErrProvisioning = errors.New("sandbox provisioning failed")

	// ErrUnavailable means the relational engine or a required store
	// could not be reached. Maps to a retryable 503.
	ErrUnavailable = errors.New("service unavailable")
)
