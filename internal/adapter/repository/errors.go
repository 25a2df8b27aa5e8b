package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/KiiTuNp/SUPERvote/internal/domain/repositories"
)

// postgres SQLSTATE codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// translateError maps driver errors onto the repositories error set. A foreign key
// violation means the referenced room, poll or participant is gone.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || hasCode(err, uniqueViolation) {
		return repositories.ErrDuplicate
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || hasCode(err, foreignKeyViolation) {
		return repositories.ErrNotFound
	}
	return err
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
