package store

// Page size bounds.
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// Page requests one page of results. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// NewPage returns a normalized page request.
func NewPage(number, size int) Page {
	p := Page{Number: number, Size: size}
	p.Validate()
	return p
}

// Validate clamps the page to sane bounds.
func (p *Page) Validate() {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// PageResult contains one page of items and the metadata to render pagers.
type PageResult[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	HasPrev  bool `json:"has_prev"`
	HasNext  bool `json:"has_next"`
}

// NewPageResult builds a PageResult for items fetched with p out of total.
func NewPageResult[T any](items []T, p Page, total int) *PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PageResult[T]{
		Items:    items,
		Page:     p.Number,
		PageSize: p.Size,
		Total:    total,
		HasPrev:  p.Number > 1,
		HasNext:  p.Offset()+len(items) < total,
	}
}

// TotalPages returns the number of pages, at least 1.
func (r *PageResult[T]) TotalPages() int {
	if r.PageSize <= 0 || r.Total == 0 {
		return 1
	}
	return (r.Total + r.PageSize - 1) / r.PageSize
}
