package orders

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceErrMapsForeignKeyViolation(t *testing.T) {
	fkErr := &pgconn.PgError{Code: "23503", ConstraintName: "order_lines_product_id_fkey"}
	require.ErrorIs(t, referenceErr(fmt.Errorf("insert line: %w", fkErr)), ErrUnknownReference)
}

func TestReferenceErrPassesThroughOtherFailures(t *testing.T) {
	cause := errors.New("connection reset")
	assert.ErrorIs(t, referenceErr(cause), cause)

	otherPg := &pgconn.PgError{Code: "23505"}
	assert.NotErrorIs(t, referenceErr(otherPg), ErrUnknownReference)
}
