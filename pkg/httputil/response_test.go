package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/intake-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithError(c, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, c.Errors, 1)
	return w, body
}

func TestRespondWithError_Validation(t *testing.T) {
	verr := &errors.ValidationError{}
	verr.Add("firstName", "firstName is required")
	verr.Add("age", "age must be a whole number >= 0")

	w, body := respond(t, fmt.Errorf("create: %w", verr))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ValidationError", body["error"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"field": "firstName", "message": "firstName is required"},
		map[string]interface{}{"field": "age", "message": "age must be a whole number >= 0"},
	}, body["details"])
}

func TestRespondWithError_NotFound(t *testing.T) {
	w, body := respond(t, errors.NewNotFound("patient", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]interface{}{"error": "NotFound"}, body)
}

func TestRespondWithError_StorageIsGeneric(t *testing.T) {
	w, body := respond(t, errors.NewStorage(fmt.Errorf("pq: connection refused")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]interface{}{"error": "InternalServerError"}, body)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestRespondWithError_TooLarge(t *testing.T) {
	w, body := respond(t, errors.NewTooLarge(nil))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, map[string]interface{}{"error": "PayloadTooLarge"}, body)
}
