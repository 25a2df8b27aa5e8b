package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/KiiTuNp/SUPERvote/internal/domain/repositories"
)

func TestTranslateError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "record not found", in: gorm.ErrRecordNotFound, want: repositories.ErrNotFound},
		{name: "translated duplicate", in: gorm.ErrDuplicatedKey, want: repositories.ErrDuplicate},
		{name: "unique violation", in: &pgconn.PgError{Code: "23505"}, want: repositories.ErrDuplicate},
		{name: "wrapped unique violation", in: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), want: repositories.ErrDuplicate},
		{name: "translated foreign key", in: gorm.ErrForeignKeyViolated, want: repositories.ErrNotFound},
		{name: "foreign key violation", in: &pgconn.PgError{Code: "23503"}, want: repositories.ErrNotFound},
		{name: "other postgres error", in: &pgconn.PgError{Code: "40001"}, want: nil},
		{name: "unrelated", in: other, want: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.in)
			switch {
			case tt.in == nil:
				assert.NoError(t, got)
			case tt.want == nil:
				assert.Same(t, tt.in, got)
			default:
				assert.ErrorIs(t, got, tt.want)
			}
		})
	}
}
