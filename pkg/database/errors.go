package database

import (
	"errors"
	"fmt"
	"strings"

	"anoa.com/unitech/pkg/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// TranslateError maps storage errors onto the apperror taxonomy. Errors that already belong to
// the taxonomy pass through untouched.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	for _, known := range []error{
		apperror.ErrNotFound,
		apperror.ErrDuplicateKey,
		apperror.ErrInvalidInput,
		apperror.ErrPartialFailure,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", apperror.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", apperror.ErrDuplicateKey, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: referenced record does not exist", apperror.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s", apperror.ErrDuplicateKey, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", apperror.ErrNotFound, pgErr.ConstraintName)
		}
	}

	// sqlite reports constraint failures as plain text
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", apperror.ErrDuplicateKey, msg)
	}
	if strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%w: %s", apperror.ErrNotFound, msg)
	}

	return err
}
