package query

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page    int
	PerPage int
}

// Normalize applies defaults: page 1, per_page 20, at most 100.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PerPage < 1:
		p.PerPage = DefaultPerPage
	case p.PerPage > MaxPerPage:
		p.PerPage = MaxPerPage
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PerPage
}

// Pages returns how many pages total rows span.
func (p Page) Pages(total int64) int {
	n := p.Normalize()
	if total <= 0 {
		return 0
	}
	return int((total + int64(n.PerPage) - 1) / int64(n.PerPage))
}
