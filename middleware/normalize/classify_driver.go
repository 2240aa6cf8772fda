package normalize

import (
	"errors"

	"governance-gateway/middleware/envelope"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SQLSTATE de unique_violation no Postgres.
const pgUniqueViolation = "23505"

// classifyDriverError cobre erros de driver que chegam sem StorageFault em
// volta (repositórios pgx, gorm ou redis).
func classifyDriverError(err error) (Classification, bool) {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, redis.Nil):
		return Classification{Code: envelope.CodeNotFound}, true
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Classification{Code: envelope.CodeUniqueViolation}, true
	case errors.As(err, &pgErr):
		if pgErr.Code == pgUniqueViolation {
			return Classification{Code: envelope.CodeUniqueViolation}, true
		}
		return Classification{Code: envelope.CodeDatabase}, true
	}
	return Classification{}, false
}
