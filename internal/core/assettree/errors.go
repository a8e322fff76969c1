package assettree

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateIdentifier = errors.New("duplicate item id")
	ErrCyclicReference     = errors.New("cyclic container reference")
)

// DuplicateIdentifierError reports two input records sharing an ItemID.
// First and Second are their positions in the input.
type DuplicateIdentifierError struct {
	ItemID int64
	First  int
	Second int
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("%v: item %d at records %d and %d", ErrDuplicateIdentifier, e.ItemID, e.First, e.Second)
}

func (e *DuplicateIdentifierError) Unwrap() error { return ErrDuplicateIdentifier }

// CyclicReferenceError reports a record that ends up inside itself, directly
// or through a chain of containers.
type CyclicReferenceError struct {
	ItemID int64
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("%v: item %d", ErrCyclicReference, e.ItemID)
}

func (e *CyclicReferenceError) Unwrap() error { return ErrCyclicReference }
