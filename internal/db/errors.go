package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Postgres error codes we care about. Both drivers appear in this repo:
// pgx in production, lib/pq in the container tests.
const (
	codeFKViolation     = "23503"
	codeUniqueViolation = "23505"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func IsFKViolation(err error) bool { return pgCode(err) == codeFKViolation }

func IsUniqueViolation(err error) bool { return pgCode(err) == codeUniqueViolation }
