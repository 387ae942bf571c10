package middleware

import (
	"net/http"

	"rescue-coordination/internal/tracing"
)

const TraceHeader = "X-Trace-Id"

// Trace reuses an incoming X-Trace-Id or generates one, echoes it on the
// response and stores it in the request context.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceHeader)
		if traceID == "" {
			traceID = tracing.NewID()
		}
		w.Header().Set(TraceHeader, traceID)

		next.ServeHTTP(w, r.WithContext(tracing.NewContext(r.Context(), traceID)))
	})
}
