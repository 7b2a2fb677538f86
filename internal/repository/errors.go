package repository

import "fmt"

// ErrNotFound represents a resource not found error in the repository layer.
// A missing sale is a normal outcome for point lookups, not a failure.
type ErrNotFound struct {
	Resource string // The type of resource (e.g., "sale")
	ID       string // The identifier that was not found
	Tenant   string // The tenant context, if applicable
}

func (e ErrNotFound) Error() string {
	if e.Tenant != "" {
		return fmt.Sprintf("%s with ID '%s' not found for tenant '%s'", e.Resource, e.ID, e.Tenant)
	}
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

// IsNotFound checks if an error is a repository not found error.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}

// ErrConditionFailed represents a failed conditional write. It is never
// retried; the caller decides what a stale or duplicate write means.
type ErrConditionFailed struct {
	Resource string // The type of resource (e.g., "sale")
	ID       string // The identifier whose condition failed
	Reason   string // The condition that did not hold
}

func (e ErrConditionFailed) Error() string {
	return fmt.Sprintf("conditional write on %s '%s' failed: %s", e.Resource, e.ID, e.Reason)
}

// IsConditionFailed checks if an error is a failed conditional write.
func IsConditionFailed(err error) bool {
	_, ok := err.(ErrConditionFailed)
	return ok
}

// ErrThrottled represents provider throttling that persisted through the
// bounded retry policy.
type ErrThrottled struct {
	Operation string // The operation that was throttled
	Attempts  int    // How many attempts were made before giving up
	Err       error
}

func (e ErrThrottled) Error() string {
	return fmt.Sprintf("%s throttled after %d attempts: %v", e.Operation, e.Attempts, e.Err)
}

func (e ErrThrottled) Unwrap() error {
	return e.Err
}

// IsThrottled checks if an error is a throttling error.
func IsThrottled(err error) bool {
	_, ok := err.(ErrThrottled)
	return ok
}

// ErrValidation represents a malformed record rejected before any call
// reaches the store.
type ErrValidation struct {
	Field  string // The field that failed validation
	Reason string // Why the record was rejected
}

func (e ErrValidation) Error() string {
	return fmt.Sprintf("invalid record: field '%s' %s", e.Field, e.Reason)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	_, ok := err.(ErrValidation)
	return ok
}

// ErrPartialBatch reports the subset of a batch write that could not be
// persisted after retries. Successful items are already written; the caller
// owns any further retry of the failed keys.
type ErrPartialBatch struct {
	FailedKeys []SaleKey
}

func (e ErrPartialBatch) Error() string {
	return fmt.Sprintf("batch write left %d items unprocessed", len(e.FailedKeys))
}

// IsPartialBatch checks if an error is a partial batch failure, returning
// the failed keys when it is.
func IsPartialBatch(err error) ([]SaleKey, bool) {
	pb, ok := err.(ErrPartialBatch)
	if !ok {
		return nil, false
	}
	return pb.FailedKeys, true
}

// NewNotFound creates a new ErrNotFound.
func NewNotFound(resource, id string) ErrNotFound {
	return ErrNotFound{Resource: resource, ID: id}
}

// NewNotFoundForTenant creates a new ErrNotFound with tenant context.
func NewNotFoundForTenant(resource, id, tenant string) ErrNotFound {
	return ErrNotFound{Resource: resource, ID: id, Tenant: tenant}
}

// NewConditionFailed creates a new ErrConditionFailed.
func NewConditionFailed(resource, id, reason string) ErrConditionFailed {
	return ErrConditionFailed{Resource: resource, ID: id, Reason: reason}
}

// NewValidation creates a new ErrValidation.
func NewValidation(field, reason string) ErrValidation {
	return ErrValidation{Field: field, Reason: reason}
}
