package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	werrors "github.com/wrale/isoreplay/internal/isoreplay/errors"
)

// HTTPError is an error carrying its response status
type HTTPError interface {
	error
	StatusCode() int
}

// httpError is both the error and its JSON body
type httpError struct {
	Message string `json:"error"`
	code    int
}

func (e *httpError) Error() string {
	return e.Message
}

func (e *httpError) StatusCode() int {
	return e.code
}

// Render implements render.Renderer
func (e *httpError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.code)
	return nil
}

func ErrInvalidRequest(msg string) error {
	return &httpError{Message: msg, code: http.StatusBadRequest}
}

func ErrNotFound(msg string) error {
	return &httpError{Message: msg, code: http.StatusNotFound}
}

func ErrUnavailable(msg string) error {
	return &httpError{Message: msg, code: http.StatusServiceUnavailable}
}

// toHTTPError maps err to the response it is rendered as. Domain errors keep
// their message; anything uncategorized is hidden behind a generic 500.
func toHTTPError(err error) *httpError {
	var he HTTPError
	if errors.As(err, &he) {
		if e, ok := he.(*httpError); ok {
			return e
		}
		return &httpError{Message: he.Error(), code: he.StatusCode()}
	}

	switch {
	case werrors.IsNotFound(err):
		return &httpError{Message: err.Error(), code: http.StatusNotFound}
	case werrors.IsConflict(err):
		return &httpError{Message: err.Error(), code: http.StatusConflict}
	case werrors.IsInvalidInput(err), werrors.IsMalformed(err):
		return &httpError{Message: err.Error(), code: http.StatusBadRequest}
	}

	return &httpError{Message: "internal server error", code: http.StatusInternalServerError}
}
