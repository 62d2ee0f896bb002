package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout puts a deadline on the request context. The handler runs on
// the request goroutine and writes into a buffer; if the deadline passes
// before it returns, the buffer is dropped and the client gets a 504.
// Handlers are expected to honour context cancellation.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if timeout <= 0 {
				return next(c)
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			resp := c.Response()
			orig := resp.Writer
			buf := newBufferedWriter(orig.Header())
			resp.Writer = buf

			finished := false
			defer func() {
				resp.Writer = orig
				if !finished {
					// Panicking: leave a clean response for Recovery.
					resetResponse(resp)
				}
			}()

			err := next(c)
			finished = true
			resp.Writer = orig

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				resetResponse(resp)
				return echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out")
			}
			if ferr := buf.flushTo(orig); ferr != nil {
				return ferr
			}
			return err
		}
	}
}

func resetResponse(resp *echo.Response) {
	resp.Committed = false
	resp.Status = http.StatusOK
	resp.Size = 0
}

// bufferedWriter holds a handler's response until it is known to be in time.
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedWriter(base http.Header) *bufferedWriter {
	return &bufferedWriter{header: base.Clone()}
}

func (w *bufferedWriter) Header() http.Header { return w.header }

func (w *bufferedWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

// flushTo copies the buffered response to w. Nothing is written when the
// handler never wrote, so echo's error handler can still answer.
func (w *bufferedWriter) flushTo(dst http.ResponseWriter) error {
	h := dst.Header()
	for k := range h {
		delete(h, k)
	}
	for k, v := range w.header {
		h[k] = v
	}
	if w.status == 0 {
		return nil
	}
	dst.WriteHeader(w.status)
	_, err := dst.Write(w.body.Bytes())
	return err
}
