package store

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that a referenced entity does not exist. Wrapped by
// NotFoundError; exposed so callers can errors.Is against it directly.
var ErrNotFound = errors.New("not found")

// NotFoundError reports an absent box, item, slot or ledger entry.
type NotFoundError struct {
	Kind string // "box", "item", "subcompartment", "transaction"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError reports malformed caller input, detected before any store
// mutation is attempted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// SlotConflictError reports a placement into a slot that is already
// occupied, including a placement race lost to a concurrent caller.
type SlotConflictError struct {
	Place string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("SubCompartment %s is already OCCUPIED", e.Place)
}

// InsufficientStockError reports a withdrawal whose quantity exceeds the
// number of occupied slots holding the item. The operation is rejected as a
// whole; no slot is freed.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d items available, but %d requested", e.Available, e.Requested)
}

// ConflictError reports a uniqueness or referential violation in the
// catalog, such as creating a duplicate id or deleting an entity that slot
// rows still reference.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// StorageError wraps an underlying persistence failure. It is always fatal
// to the current operation and never leaves a partial mutation behind.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
