package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/sprint-planner-api/internal/constants"
)

// Page is a one-based window over a listing. The zero Page means "everything".
type Page struct {
	Number int
	Size   int
}

// Enabled reports whether the page limits the listing at all
func (p Page) Enabled() bool {
	return p.Number > 0 && p.Size > 0
}

// Offset is the number of rows skipped before the page
func (p Page) Offset() int {
	if !p.Enabled() {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// TotalPages returns how many pages of this size hold total rows
func (p Page) TotalPages(total int64) int {
	if p.Size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// PageFromQuery reads ?page= and ?limit= from the request. Out-of-range or
// malformed values fall back to the defaults.
func PageFromQuery(c *gin.Context) Page {
	number, err := strconv.Atoi(c.Query("page"))
	if err != nil || number < 1 {
		number = 1
	}
	size, err := strconv.Atoi(c.Query("limit"))
	if err != nil || size < constants.MinPageSize || size > constants.MaxPageSize {
		size = constants.DefaultPageSize
	}
	return Page{Number: number, Size: size}
}
