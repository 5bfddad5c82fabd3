package database

import (
	"errors"
	"fmt"
	"testing"

	"anoa.com/unitech/pkg/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, apperror.ErrNotFound},
		{"gorm duplicate", gorm.ErrDuplicatedKey, apperror.ErrDuplicateKey},
		{"gorm foreign key", gorm.ErrForeignKeyViolated, apperror.ErrNotFound},
		{"postgres unique", &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}, apperror.ErrDuplicateKey},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), apperror.ErrDuplicateKey},
		{"already translated", fmt.Errorf("%w: user", apperror.ErrNotFound), apperror.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TranslateError(tc.in); !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if TranslateError(nil) != nil {
		t.Fatalf("expected nil to stay nil")
	}

	other := errors.New("connection reset")
	if TranslateError(other) != other {
		t.Fatalf("expected unknown errors to pass through")
	}
}
