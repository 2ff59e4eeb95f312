package middleware

import (
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"lootexchange/pkg/log"
)

var (
	errInternal = http.StatusText(http.StatusInternalServerError)
)

type internalError struct {
	Code    int         `json:"code,omitempty"`
	Message interface{} `json:"message,omitempty"`
}

type internalErrorResponse struct {
	Error *internalError `json:"error,omitempty"`
}

// Recoverer turns handler panics into a 500 response. Aborted handlers
// are re-panicked for net/http to deal with.
func Recoverer(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				log.FromContext(r.Context()).Errorw("handler panicked",
					"panic", rvr,
					"request_id", middleware.GetReqID(r.Context()),
				)
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, &internalErrorResponse{
					Error: &internalError{Code: http.StatusInternalServerError, Message: errInternal},
				})
			}
		}()

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
