package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"venuepoint-terminal/pkg/apierror"
)

// Recovery turns a handler panic into a 500 so one bad request cannot
// take the terminal agent down mid-shift.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[HTTP] panic (rid=%s): %v\n%s",
					GetRequestID(r.Context()), err, debug.Stack())

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write(apierror.InternalError("internal server error").ToJSON())
			}
		}()

		next.ServeHTTP(w, r)
	})
}
