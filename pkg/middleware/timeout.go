package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	apperrors "medibuddy/pkg/errors"
)

type writerState int

const (
	pending writerState = iota
	responding
	expired
)

// deadlineWriter lets exactly one of the handler and the deadline own the response.
type deadlineWriter struct {
	http.ResponseWriter
	mu    sync.Mutex
	state writerState
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.state != pending {
		return
	}
	dw.state = responding
	dw.ResponseWriter.WriteHeader(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.state == expired {
		return 0, http.ErrHandlerTimeout
	}
	dw.state = responding
	return dw.ResponseWriter.Write(b)
}

// expire claims the response for the deadline and writes the 504 body, unless
// the handler already started responding.
func (dw *deadlineWriter) expire() {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	started := dw.state == responding
	dw.state = expired
	if started {
		return
	}
	appErr := apperrors.Timeout("Request timed out")
	dw.ResponseWriter.Header().Set("Content-Type", "application/json")
	dw.ResponseWriter.WriteHeader(appErr.HTTPStatus)
	_, _ = dw.ResponseWriter.Write(appErr.ToJSON())
}

// RequestTimeout bounds each request by d. Booking and availability calls
// inherit the deadline through r.Context().
func RequestTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			dw := &deadlineWriter{ResponseWriter: w}
			done := make(chan any, 1)
			go func() {
				defer func() { done <- recover() }()
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case p := <-done:
				if p != nil {
					// re-raise on the serving goroutine so Recovery sees it
					panic(p)
				}
			case <-ctx.Done():
				dw.expire()
			}
		})
	}
}
