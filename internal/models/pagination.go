package models

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request with a bounded page size
type Page struct {
	Number int `json:"page"`
	Limit  int `json:"limit"`
}

// NewPage clamps page and limit into range. Non-positive values fall back to
// the first page and the default size.
func NewPage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Page{Number: page, Limit: limit}
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}
