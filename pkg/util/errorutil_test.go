package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInternalErrorKeepsUnderlyingMessage(t *testing.T) {
	cause := errors.New(`duplicate key value violates unique constraint "tickets_pkey"`)

	domainErr := ToDomainError(NewInternalError(cause))
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
	assert.Contains(t, domainErr.Message, "tickets_pkey")
	assert.True(t, errors.Is(domainErr, cause))
}

func TestNewInternalErrorWithoutCause(t *testing.T) {
	domainErr := ToDomainError(NewInternalError(nil))
	assert.Equal(t, "internal server error", domainErr.Message)
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	domainErr := ToDomainError(pgx.ErrNoRows)
	require.NotNil(t, domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	assert.Equal(t, http.StatusNotFound, domainErr.HTTPStatus)
}

func TestToDomainErrorPassesThroughGenericMessage(t *testing.T) {
	domainErr := ToDomainError(errors.New("connection refused"))
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	assert.Equal(t, "connection refused", domainErr.Message)
}
