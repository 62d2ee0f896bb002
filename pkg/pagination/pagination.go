package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// PageSizes are the page sizes a table offers.
var PageSizes = []int{10, 25, 50, 100}

const DefaultPageSize = 10

// Params holds the requested page (1-based) and page size.
type Params struct {
	Page int
	Size int
}

// FromContext extracts pagination parameters from the echo context.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	return Normalize(page, size)
}

// Normalize replaces a size that is not one of PageSizes with
// DefaultPageSize and a page below 1 with 1.
func Normalize(page, size int) Params {
	if !ValidSize(size) {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	return Params{Page: page, Size: size}
}

// ValidSize reports whether size is one of PageSizes.
func ValidSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// Page describes one page of a result set.
type Page struct {
	Page        int   `json:"page"`
	Size        int   `json:"size"`
	Total       int   `json:"total"`
	Pages       int   `json:"pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
	Sizes       []int `json:"sizes"`
}

// NewPage clamps p.Page into [1, Pages] for a result set of total items.
// An empty result set has one (empty) page.
func NewPage(p Params, total int) Page {
	p = Normalize(p.Page, p.Size)
	pages := (total + p.Size - 1) / p.Size
	if pages < 1 {
		pages = 1
	}
	if p.Page > pages {
		p.Page = pages
	}
	return Page{
		Page:        p.Page,
		Size:        p.Size,
		Total:       total,
		Pages:       pages,
		HasNext:     p.Page < pages,
		HasPrevious: p.Page > 1,
		Sizes:       PageSizes,
	}
}

// Bounds returns the half-open slice range [start, end) of the page.
func (p Page) Bounds() (start, end int) {
	start = (p.Page - 1) * p.Size
	if start > p.Total {
		start = p.Total
	}
	end = start + p.Size
	if end > p.Total {
		end = p.Total
	}
	return start, end
}

// First and Last are 1-based item positions for "x–y of z" captions.
func (p Page) First() int {
	if p.Total == 0 {
		return 0
	}
	start, _ := p.Bounds()
	return start + 1
}

func (p Page) Last() int {
	_, end := p.Bounds()
	return end
}
