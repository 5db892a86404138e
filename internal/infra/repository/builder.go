package repository

import (
	"errors"

	"booking-core/internal/infra"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
)

// qb builds PostgreSQL-flavored queries with $N placeholders.
var qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const (
	pgErrCodeUniqueViolation     = "23505"
	pgErrCodeForeignKeyViolation = "23503"
	pgErrCodeExclusionViolation  = "23P01"
)

func kindFromPgErr(err error) infra.RepositoryErrorKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrCodeUniqueViolation:
			return infra.KindDuplicateKey
		case pgErrCodeForeignKeyViolation:
			return infra.KindForeignKeyViolated
		case pgErrCodeExclusionViolation:
			return infra.KindConflict
		}
	}
	return infra.KindDBFailure
}
