package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/world"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string   `json:"error"`
	Code      string   `json:"code"`
	Available []string `json:"available,omitempty"`
	Details   string   `json:"details,omitempty"`
}

// classify maps an error kind to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, core.ErrReadOnly):
		return http.StatusForbidden, "READ_ONLY"
	default:
		return http.StatusInternalServerError, "STORAGE_FAILURE"
	}
}

// fail writes the error response for err. subject names the resource in
// not-found and conflict messages ("Domain not found").
func fail(c *gin.Context, err error, subject string) {
	status, code := classify(err)
	resp := ErrorResponse{Code: code}

	switch status {
	case http.StatusNotFound:
		resp.Error = subject + " not found"
		var nf *world.NotFoundError
		if errors.As(err, &nf) {
			resp.Available = nf.Available
			if resp.Available == nil {
				resp.Available = []string{}
			}
		}
	case http.StatusConflict:
		resp.Error = subject + " already exists"
	case http.StatusBadRequest:
		resp.Error = strings.TrimPrefix(err.Error(), core.ErrValidation.Error()+": ")
	default:
		resp.Error = "Failed to process " + strings.ToLower(subject)
		resp.Details = err.Error()
		logger(c).Error("request failed", "subject", subject, "error", err)
	}
	c.JSON(status, resp)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch status, _ := classify(err); status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadRequest:
		return "invalid"
	}
	return "error"
}
