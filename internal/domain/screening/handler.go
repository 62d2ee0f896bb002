package screening

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/labstack/echo/v4"

	"github.com/mentalcheck/screening-admin/pkg/pagination"
)

const (
	PagePath    = "/admin/screenings"
	RefreshPath = "/admin/screenings/refresh"
	ExportPath  = "/admin/screenings/export.xlsx"

	xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	fetcher *Fetcher
	format  Formatter
}

func NewHandler(fetcher *Fetcher, format Formatter) *Handler {
	return &Handler{fetcher: fetcher, format: format}
}

// RegisterRoutes mounts the admin screen on admin (HTML forms, CSRF
// protected by the caller) and its JSON mirror on api.
func (h *Handler) RegisterRoutes(admin *echo.Group, api *echo.Group) {
	admin.GET("/screenings", h.Page)
	admin.POST("/screenings/refresh", h.RefreshPage)
	admin.GET("/screenings/export.xlsx", h.Export)

	api.GET("/screenings", h.ListScreenings)
	api.GET("/screenings/:id", h.GetScreening)
	api.POST("/screenings/refresh", h.RefreshScreenings)
}

func tableOptions(c echo.Context) TableOptions {
	pg := pagination.FromContext(c)
	return TableOptions{
		Query: c.QueryParam("q"),
		Sort:  c.QueryParam("sort"),
		Dir:   c.QueryParam("dir"),
		Page:  pg.Page,
		Size:  pg.Size,
	}
}

// -- HTML --

func (h *Handler) Page(c echo.Context) error {
	state := h.fetcher.Load(c.Request().Context())
	table := BuildTable(state.Records, tableOptions(c), h.format)

	view := PageView{
		Path:        PagePath,
		RefreshPath: RefreshPath,
		ExportPath:  ExportPath,
		Placeholder: SearchPlaceholder,
		CSRFField:   csrfField(c.Request()),
		State:       state,
		Table:       table,
	}
	if id := c.QueryParam("view"); id != "" {
		if s, err := h.fetcher.Find(id); err == nil {
			d := NewDetail(s, h.format)
			view.Detail = &d
		}
	}

	var buf bytes.Buffer
	if err := view.Render(&buf); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "render screenings page").SetInternal(err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// refreshKeys are the table parameters a refresh carries back to the page.
var refreshKeys = []string{"q", "sort", "dir", "size", "page"}

func (h *Handler) RefreshPage(c echo.Context) error {
	h.fetcher.Refresh(c.Request().Context())
	return c.Redirect(http.StatusSeeOther, refreshTarget(c))
}

func refreshTarget(c echo.Context) string {
	q := url.Values{}
	for _, k := range refreshKeys {
		if v := strings.TrimSpace(c.FormValue(k)); v != "" {
			q.Set(k, v)
		}
	}
	if len(q) == 0 {
		return PagePath
	}
	return PagePath + "?" + q.Encode()
}

func (h *Handler) Export(c echo.Context) error {
	state := h.fetcher.Load(c.Request().Context())
	if state.Error != "" && !state.Loaded {
		return echo.NewHTTPError(http.StatusBadGateway, state.Error)
	}
	list := Sorted(Filter(state.Records, c.QueryParam("q")), ColCreatedAt, SortDesc)

	var buf bytes.Buffer
	if err := WriteSpreadsheet(&buf, list, h.format); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "export screenings").SetInternal(err)
	}
	loc := h.format.Location
	if loc == nil {
		loc = time.UTC
	}
	name := "triagens-" + time.Now().In(loc).Format("20060102-1504") + ".xlsx"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}

// -- JSON --

// listResponse is the JSON form of the admin screen.
type listResponse struct {
	Table
	Error     string    `json:"error,omitempty"`
	Loading   bool      `json:"loading"`
	FetchedAt time.Time `json:"fetchedAt,omitempty"`
}

func (h *Handler) ListScreenings(c echo.Context) error {
	state := h.fetcher.Load(c.Request().Context())
	return c.JSON(http.StatusOK, listResponse{
		Table:     BuildTable(state.Records, tableOptions(c), h.format),
		Error:     state.Error,
		Loading:   state.Loading,
		FetchedAt: state.FetchedAt,
	})
}

func (h *Handler) GetScreening(c echo.Context) error {
	h.fetcher.Load(c.Request().Context())
	s, err := h.fetcher.Find(c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "screening not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, NewDetail(s, h.format))
}

func (h *Handler) RefreshScreenings(c echo.Context) error {
	state := h.fetcher.Refresh(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"loaded":    len(state.Records),
		"error":     state.Error,
		"loading":   state.Loading,
		"fetchedAt": state.FetchedAt,
		"limit":     h.fetcher.Limit(),
	})
}

// csrfField is empty when the request did not pass through csrf.Protect.
func csrfField(r *http.Request) template.HTML {
	if csrf.Token(r) == "" {
		return ""
	}
	return csrf.TemplateField(r)
}
