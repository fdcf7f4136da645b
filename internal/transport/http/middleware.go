package httptransport

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/trainerworkload/internal/logging"
)

// HeaderTransactionID carries the caller's transaction id.
const HeaderTransactionID = "X-Transaction-ID"

type contextKey string

const transactionIDKey contextKey = "trainer-workload-transaction-id"

// TransactionIDFromContext returns the id assigned by WithTransactionID.
func TransactionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(transactionIDKey).(string)
	return id
}

// ContextWithTransactionID stores id on the context.
func ContextWithTransactionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, transactionIDKey, id)
}

// WithTransactionID reuses the caller's X-Transaction-ID or generates one, and echoes it on the response.
func WithTransactionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderTransactionID))
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(HeaderTransactionID, id)
		}
		w.Header().Set(HeaderTransactionID, id)
		next.ServeHTTP(w, r.WithContext(ContextWithTransactionID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs one line per request with its status and latency.
func RequestLogger(logger logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		fields := []logging.Field{
			logging.TransactionID(TransactionIDFromContext(r.Context())),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("duration", time.Since(started)),
		}
		if rec.status >= http.StatusInternalServerError {
			logger.Error("request failed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	})
}
