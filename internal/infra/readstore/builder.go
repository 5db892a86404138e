package readstore

import "github.com/Masterminds/squirrel"

// qb builds PostgreSQL-flavored queries with $N placeholders.
var qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
