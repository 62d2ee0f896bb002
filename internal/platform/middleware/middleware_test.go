package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestID_GeneratesNew(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		rid := c.Get("request_id").(string)
		if rid == "" {
			t.Error("expected request_id to be generated")
		}
		return c.String(http.StatusOK, "ok")
	}

	mw := RequestID()
	h := mw(handler)
	err := h(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestRequestID_PreservesExisting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "my-custom-id")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		rid := c.Get("request_id").(string)
		if rid != "my-custom-id" {
			t.Errorf("expected my-custom-id, got %s", rid)
		}
		return c.String(http.StatusOK, "ok")
	}

	mw := RequestID()
	h := mw(handler)
	h(c)

	if rec.Header().Get(RequestIDHeader) != "my-custom-id" {
		t.Errorf("expected my-custom-id in response header, got %s", rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestID_ReplacesOversized(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	RequestID()(func(c echo.Context) error { return nil })(c)

	if got := rec.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Errorf("expected a fresh UUID, got %q", got)
	}
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/admin/screenings", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "req-1")

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := Logger(logger)
	h := mw(handler)
	err := h(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"request_id":"req-1"`, `"path":"/admin/screenings"`, `"status":200`, `"level":"info"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in log line, got %s", want, out)
		}
	}
}

func TestLogger_LogsResolvedErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/screenings/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := Logger(logger)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "screening not found")
	})
	if err := h(c); err != nil {
		t.Fatalf("expected the error to be handled, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 response, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), `"status":404`) || !strings.Contains(buf.String(), `"level":"error"`) {
		t.Errorf("expected error line with status 404, got %s", buf.String())
	}
}

func TestLogger_HealthAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	Logger(logger)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c)
	if buf.Len() != 0 {
		t.Errorf("expected health probe to be filtered at info level, got %s", buf.String())
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	logger := zerolog.New(os.Stderr).With().Logger()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		panic("test panic")
	}

	mw := Recovery(logger)
	h := mw(handler)
	err := h(c)

	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	logger := zerolog.New(os.Stderr).With().Logger()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := Recovery(logger)
	h := mw(handler)
	err := h(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReportAccess_LogsDetailView(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	var got []AccessEntry
	rec := AccessRecorderFunc(func(entry AccessEntry) error {
		got = append(got, entry)
		return nil
	})

	e := echo.New()
	mw := ReportAccess(logger, "/api/v1", rec)
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	for _, target := range []string{
		"/admin/screenings?view=s1",
		"/api/v1/screenings/s2",
		"/admin/screenings",
		"/api/v1/screenings",
		"/api/v1/screenings/refresh/extra",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.Set("request_id", "req-9")
		if err := mw(ok)(c); err != nil {
			t.Fatalf("%s: unexpected error %v", target, err)
		}
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 recorded accesses, got %d", len(got))
	}
	if got[0].ScreeningID != "s1" || got[1].ScreeningID != "s2" {
		t.Errorf("unexpected ids %s, %s", got[0].ScreeningID, got[1].ScreeningID)
	}
	if got[0].RequestID != "req-9" || got[0].StatusCode != http.StatusOK {
		t.Errorf("unexpected entry %+v", got[0])
	}
	if strings.Count(buf.String(), `"type":"report_access"`) != 2 {
		t.Errorf("expected two access log lines, got %s", buf.String())
	}
}

func TestReportAccess_IgnoresPostAndRecorderErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	failing := AccessRecorderFunc(func(AccessEntry) error { return errors.New("disk full") })

	e := echo.New()
	mw := ReportAccess(logger, "/api/v1", failing)
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	req := httptest.NewRequest(http.MethodPost, "/api/v1/screenings/refresh", nil)
	if err := mw(ok)(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected POST to be ignored, got %s", buf.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/screenings/s3", nil)
	if err := mw(ok)(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatalf("expected recorder failure not to fail the request, got %v", err)
	}
	if !strings.Contains(buf.String(), "failed to record report access") {
		t.Error("expected recorder failure to be logged")
	}
}
