package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateEvent    = errors.New("webhook event already processed")
	ErrSignatureMismatch = errors.New("signature verification failed")
	ErrAlreadyAllocated  = errors.New("fabric already allocated to this order")
)

// InvalidTransitionError: the requested edge does not exist in the
// transition graph.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %q to %q", e.From, e.To)
}

// UnauthorizedTransitionError: the edge exists but none of the caller's
// roles permit it.
type UnauthorizedTransitionError struct {
	Roles []string
	From  string
	To    string
}

func (e *UnauthorizedTransitionError) Error() string {
	return fmt.Sprintf("role not allowed to change status from %q to %q", e.From, e.To)
}

// PreconditionFailedError: a business-rule gate failed, distinct from graph
// validity and authorization.
type PreconditionFailedError struct {
	OrderNumber string
	Reason      string
}

func (e *PreconditionFailedError) Error() string {
	return fmt.Sprintf("order %s: %s", e.OrderNumber, e.Reason)
}

// InsufficientStockError reports available vs requested quantities.
type InsufficientStockError struct {
	FabricID  string
	Available float64
	Requested float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: available %.3fm, required %.3fm", e.Available, e.Requested)
}

// isUniqueViolation matches constraint errors across the sqlite and postgres
// drivers, which do not share a sentinel.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "constraint failed")
}
