package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	ConstraintUserEmail      = "users_email_key"
	ConstraintMedicationName = "medication_skus_medication_name_key"
	ConstraintMedicationSKU  = "medication_skus_sku_key"
	ConstraintTagName        = "tags_user_id_name_key"
)

// MaxInteger is the largest value an INTEGER column accepts.
const MaxInteger = 2147483647

var (
	ErrNotFound   = errors.New("record not found")
	ErrOutOfRange = errors.New("numeric value out of range")
)

// UniqueViolationError reports which unique constraint rejected a write.
type UniqueViolationError struct {
	Constraint string
	Err        error
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique constraint %q violated", e.Constraint)
}

func (e *UniqueViolationError) Unwrap() error {
	return e.Err
}

// BatchError carries the position of the element that aborted a batch write.
type BatchError struct {
	Index int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch element %d: %v", e.Index, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &UniqueViolationError{Constraint: pgErr.ConstraintName, Err: err}
	case pgerrcode.NumericValueOutOfRange:
		return fmt.Errorf("%w: %s", ErrOutOfRange, pgErr.Message)
	}
	return err
}
