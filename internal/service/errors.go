// Package service implements the business logic on top of the repository
// layer. Services depend on repository.Store and are wired together in main.
package service

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// noRows reports whether err is the pgx empty-result sentinel, so services
// can translate it into the appropriate domain not-found error.
func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
