package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/pkg/errors"
)

// Error body codes returned to clients.
const (
	CodeValidation = "ValidationError"
	CodeNotFound   = "NotFound"
	CodeInternal   = "InternalServerError"
	CodeTooMany    = "TooManyRequests"
	CodeTooLarge   = "PayloadTooLarge"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details []errors.FieldError `json:"details,omitempty"`
}

// RespondWithSuccess sends data with the given status code.
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// RespondNoContent sends an empty 204.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// errorCodes names the body for each status RespondWithError can send.
var errorCodes = map[int]string{
	http.StatusBadRequest:            CodeValidation,
	http.StatusNotFound:              CodeNotFound,
	http.StatusRequestEntityTooLarge: CodeTooLarge,
	http.StatusInternalServerError:   CodeInternal,
}

// RespondWithError maps err onto a status and body. Unrecognised errors are
// reported generically; the cause is attached to the gin context so the
// request logger records it.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := errors.StatusCode(err)
	code, ok := errorCodes[status]
	if !ok {
		status, code = http.StatusInternalServerError, CodeInternal
	}

	resp := ErrorResponse{Error: code}
	if verr, ok := errors.AsValidation(err); ok {
		resp.Details = verr.Details
	}
	c.AbortWithStatusJSON(status, resp)
}
