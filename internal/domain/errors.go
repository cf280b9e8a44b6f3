package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRowRejected marks a single row that could not be coerced into an
	// Observation. The row is dropped and ingestion continues.
	ErrRowRejected = errors.New("row rejected")

	// ErrIngestionEmpty is returned when no row survived normalization across
	// all workbooks. Nothing is persisted.
	ErrIngestionEmpty = errors.New("ingestion produced no observations")

	// ErrStoreWrite marks a connection or write failure during load.
	ErrStoreWrite = errors.New("store write failed")
)

// Rejection reasons, used as the rows_rejected_total label.
const (
	ReasonMissingSpecies = "missing_species"
	ReasonInvalidNumber  = "invalid_number"
)

// RowRejectedError describes why a row was dropped.
type RowRejectedError struct {
	Sheet  SheetRef
	Line   int
	Column string
	Value  string
	Reason string
}

func (e *RowRejectedError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s row %d: %s", e.Sheet, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s row %d: %s in %s: %q", e.Sheet, e.Line, e.Reason, e.Column, e.Value)
}

func (e *RowRejectedError) Is(target error) bool {
	return target == ErrRowRejected
}

// StoreWriteError wraps a failure in one stage of a table replace.
type StoreWriteError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write %s %q: %v", e.Op, e.Table, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

func (e *StoreWriteError) Is(target error) bool {
	return target == ErrStoreWrite
}
