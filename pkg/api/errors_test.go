package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeoOne601/ventro/pkg/apperrors"
)

func TestRespondErrorMapsAppErrorKindToStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	respondError(c, apperrors.WithReason(apperrors.KindValidation, "bad request", "missing_field"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body ErrorResponse
	require.NoError(t, decodeJSON(rec, &body))
	assert.Equal(t, "validation_error", body.Kind)
	assert.Equal(t, "bad request", body.Message)
	assert.Equal(t, "missing_field", body.Reason)
}

func TestRespondErrorMapsUnknownErrorToFatal(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	respondError(c, errors.New("something unexpected broke"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, decodeJSON(rec, &body))
	assert.Equal(t, "fatal_error", body.Kind)
}

func TestRespondErrorAuthKindMapsToUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	respondError(c, apperrors.New(apperrors.KindAuth, "invalid token"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
