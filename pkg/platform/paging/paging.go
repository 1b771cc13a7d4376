// Package paging carries a page request from the HTTP layer down to stores.
package paging

const (
	DefaultSize = 30
	MaxSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// First is the default page.
func First() Page {
	return Page{Number: 1, Size: DefaultSize}
}

func (p Page) Limit() int { return p.Size }

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Window returns the bounds of the page within a slice of n items.
func (p Page) Window(n int) (lo, hi int) {
	lo = min(p.Offset(), n)
	hi = min(lo+p.Limit(), n)
	return lo, hi
}
