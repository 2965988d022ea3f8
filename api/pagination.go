package api

import (
	"net/http"
	"strconv"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

// pageParams holds the parsed (page, pageSize) pair, both 1-indexed.
type pageParams struct {
	page     int
	pageSize int
}

// parsePagination reads page/pageSize query params, defaulting and capping
// defaulting and capping page size. Non-positive integers are rejected with InvalidInput.
func parsePagination(r *http.Request) (pageParams, error) {
	p := pageParams{page: defaultPage, pageSize: defaultPageSize}
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, invalidInput("page must be a positive integer")
		}
		p.page = n
	}
	if v := r.URL.Query().Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, invalidInput("pageSize must be a positive integer")
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		p.pageSize = n
	}
	return p, nil
}

// slice applies page/pageSize to items, returning the empty slice (not an
// error) when page is past the end.
func (p pageParams) slice(total int) (start, end int) {
	start = (p.page - 1) * p.pageSize
	if start >= total {
		return total, total
	}
	end = start + p.pageSize
	if end > total {
		end = total
	}
	return start, end
}

// parseOptionalHeight reads an optional "height" query param; absence means
// "latest" and is signaled by ok=false.
func parseOptionalHeight(r *http.Request) (h uint64, ok bool, err error) {
	v := r.URL.Query().Get("height")
	if v == "" {
		return 0, false, nil
	}
	n, parseErr := strconv.ParseUint(v, 10, 64)
	if parseErr != nil {
		return 0, false, invalidInput("height must be a non-negative integer")
	}
	return n, true, nil
}
