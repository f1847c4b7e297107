package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
	MinPerPage     = 1
)

// Params holds validated pagination parameters
type Params struct {
	Page    int
	PerPage int
	Offset  int
}

// Parse extracts and validates page/per_page from query parameters
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(DefaultPerPage)))
	return New(page, perPage)
}

// ParseOptional returns nil when neither page nor per_page is present, meaning
// the caller wants every row.
func ParseOptional(c *gin.Context) *Params {
	if c.Query("page") == "" && c.Query("per_page") == "" {
		return nil
	}
	p := Parse(c)
	return &p
}

// New normalizes page and perPage.
func New(page, perPage int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < MinPerPage {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Params{
		Page:    page,
		PerPage: perPage,
		Offset:  (page - 1) * perPage,
	}
}

// TotalPages is the ceiling of total/perPage.
func (p Params) TotalPages(total int64) int {
	if total <= 0 {
		return 0
	}
	return int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// Clamp moves a page past the end back to the last page.
func (p *Params) Clamp(total int64) {
	if last := p.TotalPages(total); last > 0 && p.Page > last {
		p.Page = last
		p.Offset = (p.Page - 1) * p.PerPage
	}
}

// Envelope renders the list response: {<key>: items, pagination: {...}}.
// A nil page yields the items alone under key with no pagination block.
func Envelope(key string, items interface{}, total int64, p *Params) map[string]interface{} {
	out := map[string]interface{}{key: items}
	if p == nil {
		return out
	}
	out["pagination"] = map[string]interface{}{
		"page":         p.Page,
		"per_page":     p.PerPage,
		"total_" + key: total,
		"total_pages":  p.TotalPages(total),
	}
	return out
}
