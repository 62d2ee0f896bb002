package screening

import (
	"embed"
	"html/template"
	"io"
	"net/url"
	"strconv"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/screenings.html"))

// SearchPlaceholder is the hint shown in the search box.
const SearchPlaceholder = "Buscar por nome, matrícula, curso, período ou disponibilidade"

// PageView is the data behind the admin screen template.
type PageView struct {
	Path        string
	RefreshPath string
	ExportPath  string
	Placeholder string
	CSRFField   template.HTML
	State       State
	Table       Table
	Detail      *Detail
}

// params returns the query string that reproduces the current view.
func (v PageView) params() url.Values {
	q := url.Values{}
	if v.Table.Query != "" {
		q.Set("q", v.Table.Query)
	}
	if v.Table.Sort != "" && !(v.Table.Sort == ColCreatedAt && v.Table.Dir == SortDesc) {
		q.Set("sort", v.Table.Sort)
		q.Set("dir", v.Table.Dir)
	}
	if v.Table.Page.Page > 1 {
		q.Set("page", strconv.Itoa(v.Table.Page.Page))
	}
	if v.Table.Page.Size != 0 {
		q.Set("size", strconv.Itoa(v.Table.Page.Size))
	}
	if v.Detail != nil {
		q.Set("view", v.Detail.ID)
	}
	return q
}

func (v PageView) build(q url.Values) string {
	if enc := q.Encode(); enc != "" {
		return v.Path + "?" + enc
	}
	return v.Path
}

// URL returns the current view's URL with key/value pairs overridden. An
// empty value removes the key.
func (v PageView) URL(kv ...string) string {
	q := v.params()
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			q.Del(kv[i])
		} else {
			q.Set(kv[i], kv[i+1])
		}
	}
	return v.build(q)
}

// SortURL toggles the direction when key is already the sort column.
func (v PageView) SortURL(key string) string {
	dir := SortAsc
	if key == ColCreatedAt {
		dir = SortDesc
	}
	if v.Table.Sort == key {
		if v.Table.Dir == SortAsc {
			dir = SortDesc
		} else {
			dir = SortAsc
		}
	}
	q := v.params()
	q.Set("sort", key)
	q.Set("dir", dir)
	q.Del("page")
	q.Del("view")
	return v.build(q)
}

func (v PageView) SortMark(key string) string {
	if v.Table.Sort != key {
		return ""
	}
	if v.Table.Dir == SortAsc {
		return " ▲"
	}
	return " ▼"
}

func (v PageView) PageURL(page int) string {
	return v.URL("page", strconv.Itoa(page), "view", "")
}

func (v PageView) PrevPage() int { return v.Table.Page.Page - 1 }
func (v PageView) NextPage() int { return v.Table.Page.Page + 1 }

func (v PageView) ExportURL() string {
	q := url.Values{}
	if v.Table.Query != "" {
		q.Set("q", v.Table.Query)
	}
	if enc := q.Encode(); enc != "" {
		return v.ExportPath + "?" + enc
	}
	return v.ExportPath
}

// Render writes the admin screen.
func (v PageView) Render(w io.Writer) error {
	return pageTmpl.Execute(w, v)
}
