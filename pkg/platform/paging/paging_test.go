package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	cases := []struct {
		name   string
		page   Page
		n      int
		lo, hi int
	}{
		{"first page", Page{Number: 1, Size: 2}, 5, 0, 2},
		{"last partial page", Page{Number: 3, Size: 2}, 5, 4, 5},
		{"past the end", Page{Number: 9, Size: 2}, 5, 5, 5},
		{"empty", First(), 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lo, hi := tc.page.Window(tc.n)
			assert.Equal(t, tc.lo, lo)
			assert.Equal(t, tc.hi, hi)
		})
	}
}
