package httputil

import (
	"net/http"
	"strconv"

	dErrors "coliving/pkg/domain-errors"
	"coliving/pkg/platform/paging"
)

// ParsePage reads ?page= and ?itemsPerPage= with defaults.
func ParsePage(r *http.Request) (paging.Page, error) {
	p := paging.First()
	q := r.URL.Query()
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return paging.Page{}, dErrors.New(dErrors.CodeBadRequest, "page must be a positive integer")
		}
		p.Number = n
	}
	if raw := q.Get("itemsPerPage"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > paging.MaxSize {
			return paging.Page{}, dErrors.New(dErrors.CodeBadRequest, "itemsPerPage must be between 1 and 100")
		}
		p.Size = n
	}
	return p, nil
}

// Collection is the envelope returned by list endpoints.
type Collection[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PerPage    int `json:"itemsPerPage"`
	TotalItems int `json:"totalItems"`
}

// NewCollection wraps items, never encoding a null array.
func NewCollection[T any](items []T, page paging.Page, total int) Collection[T] {
	if items == nil {
		items = []T{}
	}
	return Collection[T]{Items: items, Page: page.Number, PerPage: page.Size, TotalItems: total}
}
