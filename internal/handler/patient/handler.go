package patient

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/jwalitptl/intake-api/internal/service/patient"
	apperrors "github.com/jwalitptl/intake-api/pkg/errors"
	"github.com/jwalitptl/intake-api/pkg/httputil"
)

type Handler struct {
	service patient.PatientService
}

func NewHandler(service patient.PatientService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("", h.ListPatients)
		patients.POST("", h.CreatePatient)
		patients.GET("/:id", h.GetPatient)
		patients.PATCH("/:id", h.UpdatePatient)
		patients.DELETE("/:id", h.DeletePatient)
	}
}

func (h *Handler) ListPatients(c *gin.Context) {
	patients, err := h.service.ListPatients(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, patients)
}

func (h *Handler) CreatePatient(c *gin.Context) {
	input, err := decodeBody(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	created, err := h.service.CreatePatient(c.Request.Context(), input)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, created)
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	input, err := decodeBody(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	updated, err := h.service.UpdatePatient(c.Request.Context(), id, input)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, updated)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.DeletePatient(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondNoContent(c)
}

// parseID treats anything but a positive integer as an unknown record.
func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound("patient", err)
	}
	return id, nil
}

// decodeBody binds a JSON object body. Numbers stay json.Number so
// integers and fractions remain distinguishable, and an empty body counts
// as {}.
func decodeBody(c *gin.Context) (map[string]interface{}, error) {
	if c.Request.Body == nil {
		return map[string]interface{}{}, nil
	}

	var input map[string]interface{}
	if err := c.ShouldBindBodyWith(&input, binding.JSON); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, apperrors.NewTooLarge(err)
		case errors.Is(err, io.EOF):
			return map[string]interface{}{}, nil
		}
		return nil, notAnObject()
	}

	// the decoder stops after the first value; anything after it is junk
	if raw, ok := c.Get(gin.BodyBytesKey); ok {
		if b, _ := raw.([]byte); !json.Valid(b) {
			return nil, notAnObject()
		}
	}
	if input == nil {
		return nil, notAnObject()
	}
	return input, nil
}

func notAnObject() error {
	return apperrors.NewValidation("body", "request body must be a JSON object")
}

func init() {
	binding.EnableDecoderUseNumber = true
}
