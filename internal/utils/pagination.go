package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

var (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// SetPageLimits вызывается один раз при старте из конфига.
func SetPageLimits(def, max int) {
	if def > 0 {
		DefaultPerPage = def
	}
	if max > 0 {
		MaxPerPage = max
	}
	if DefaultPerPage > MaxPerPage {
		DefaultPerPage = MaxPerPage
	}
}

type Page struct {
	Page    int
	PerPage int
}

func (p Page) Offset() int { return (p.Page - 1) * p.PerPage }
func (p Page) Limit() int  { return p.PerPage }

type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// NewPage clamps page to >= 1 and perPage to [1, MaxPerPage].
func NewPage(page, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{Page: page, PerPage: perPage}
}

func PageFromQuery(c *gin.Context) Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(DefaultPerPage)))
	return NewPage(page, perPage)
}

func (p Page) Meta(total int64) PageMeta {
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}
	return PageMeta{
		CurrentPage: p.Page,
		PerPage:     p.PerPage,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     p.Page < totalPages,
		HasPrev:     p.Page > 1,
	}
}
