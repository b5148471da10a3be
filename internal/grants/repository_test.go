package grants

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantInsertErrMapsConstraintViolations(t *testing.T) {
	fkErr := &pgconn.PgError{Code: "23503", ConstraintName: "category_grants_category_id_fkey"}
	err := grantInsertErr(fmt.Errorf("exec: %w", fkErr), 7)
	require.ErrorIs(t, err, ErrUnknownCategory)
	assert.Contains(t, err.Error(), "7")

	dupErr := &pgconn.PgError{Code: "23505"}
	err = grantInsertErr(dupErr, 3)
	require.ErrorIs(t, err, ErrDuplicateCategory)
}

func TestGrantInsertErrPassesThroughOtherFailures(t *testing.T) {
	cause := errors.New("connection reset")
	err := grantInsertErr(cause, 1)
	require.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrUnknownCategory)

	otherPg := &pgconn.PgError{Code: "42703"}
	err = grantInsertErr(otherPg, 1)
	assert.NotErrorIs(t, err, ErrUnknownCategory)
	assert.NotErrorIs(t, err, ErrDuplicateCategory)
}
