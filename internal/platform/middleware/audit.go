package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AccessEntry records one read of a screening report.
type AccessEntry struct {
	ScreeningID string
	RequestID   string
	Method      string
	Path        string
	IPAddress   string
	UserAgent   string
	StatusCode  int
	Timestamp   time.Time
}

// AccessRecorder persists access entries.
type AccessRecorder interface {
	RecordAccess(entry AccessEntry) error
}

// AccessRecorderFunc adapts a function to AccessRecorder.
type AccessRecorderFunc func(entry AccessEntry) error

func (f AccessRecorderFunc) RecordAccess(entry AccessEntry) error {
	return f(entry)
}

// ReportAccess logs every request that discloses a full screening report:
// the admin page with ?view=<id> and GET <apiPrefix>/screenings/<id>.
// Recorder failures are logged and never fail the request.
func ReportAccess(logger zerolog.Logger, apiPrefix string, recorders ...AccessRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			id := reportID(c, apiPrefix)
			if id == "" {
				return err
			}
			req := c.Request()
			entry := AccessEntry{
				ScreeningID: id,
				RequestID:   requestID(c),
				Method:      req.Method,
				Path:        req.URL.Path,
				IPAddress:   c.RealIP(),
				UserAgent:   req.UserAgent(),
				StatusCode:  c.Response().Status,
				Timestamp:   time.Now().UTC(),
			}

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record report access")
				}
			}

			logger.Info().
				Str("type", "report_access").
				Str("request_id", entry.RequestID).
				Str("screening_id", entry.ScreeningID).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("report_access")

			return err
		}
	}
}

// reportID returns the screening whose report the request reads, or "".
func reportID(c echo.Context, apiPrefix string) string {
	req := c.Request()
	if req.Method != "GET" {
		return ""
	}
	if id := c.QueryParam("view"); id != "" {
		return id
	}
	rest, ok := strings.CutPrefix(req.URL.Path, strings.TrimRight(apiPrefix, "/")+"/screenings/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}
