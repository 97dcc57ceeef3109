package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL integrity constraint codes
const (
	PgErrForeignKeyViolation = "23503" // foreign_key_violation
	PgErrUniqueViolation     = "23505" // unique_violation
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects the write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReferenceViolation is returned when a foreign key target is missing
	// or a restricted row is still referenced.
	ErrReferenceViolation = errors.New("reference violation")
	// ErrTransientStore marks store failures that may succeed on retry.
	ErrTransientStore = errors.New("transient store failure")
)

// StoreError wraps an unexpected persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is makes every StoreError match ErrTransientStore.
func (e *StoreError) Is(target error) bool {
	return target == ErrTransientStore
}

// translate maps gorm and driver errors onto the repository taxonomy.
func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w", op, ErrReferenceViolation)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case PgErrForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", op, ErrReferenceViolation, pgErr.ConstraintName)
		case PgErrUniqueViolation:
			return fmt.Errorf("%s: %w: %s", op, ErrDuplicate, pgErr.ConstraintName)
		}
	}

	return &StoreError{Op: op, Err: err}
}
