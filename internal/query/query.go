// Package query turns raw list and search parameters into a bounded post
// query and derives pagination metadata from a total count. It does no I/O.
package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/alphabot-ai/postboard/internal/apperr"
	"github.com/alphabot-ai/postboard/internal/model"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type SortField string

const SortCreatedAt SortField = "createdAt"

type Sort struct {
	Field SortField
	Desc  bool
}

// Filter is the conjunction of its non-empty parts.
type Filter struct {
	AuthorUID string
	// Tags matches posts carrying at least one of them.
	Tags []string
	// Keyword matches title or content, case-insensitively.
	Keyword string
}

func (f Filter) Matches(p model.Post) bool {
	if f.AuthorUID != "" && p.AuthorUID != f.AuthorUID {
		return false
	}
	if len(f.Tags) > 0 && !intersects(p.Tags, f.Tags) {
		return false
	}
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(p.Title), kw) && !strings.Contains(strings.ToLower(p.Content), kw) {
			return false
		}
	}
	return true
}

func intersects(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

// Window is a contiguous slice of a sorted result.
type Window struct {
	Page  int
	Limit int
	Skip  int
}

type Pagination struct {
	Total       int
	CurrentPage int
	TotalPages  int
}

func (w Window) Paginate(total int) Pagination {
	pages := 0
	if w.Limit > 0 {
		pages = (total + w.Limit - 1) / w.Limit
	}
	return Pagination{Total: total, CurrentPage: w.Page, TotalPages: pages}
}

type PostQuery struct {
	Filter Filter
	Sort   Sort
	Window
}

// Builder normalizes request parameters. MaxLimit caps the page size when
// positive.
type Builder struct {
	MaxLimit int
}

func NewBuilder(maxLimit int) Builder {
	return Builder{MaxLimit: maxLimit}
}

// Window parses page and limit, falling back to the defaults for missing,
// non-numeric or non-positive values.
func (b Builder) Window(page, limit string) Window {
	p := positiveOr(page, DefaultPage)
	l := positiveOr(limit, DefaultLimit)
	if b.MaxLimit > 0 && l > b.MaxLimit {
		l = b.MaxLimit
	}
	skip := math.MaxInt
	if p-1 <= math.MaxInt/l {
		skip = (p - 1) * l
	}
	return Window{Page: p, Limit: l, Skip: skip}
}

func (b Builder) List(page, limit, author, tags string) PostQuery {
	return PostQuery{
		Filter: Filter{
			AuthorUID: strings.TrimSpace(author),
			Tags:      SplitTags(tags),
		},
		Sort:   newestFirst(),
		Window: b.Window(page, limit),
	}
}

// Search matches keyword as given; only an empty keyword is rejected.
func (b Builder) Search(keyword, page, limit string) (PostQuery, error) {
	if keyword == "" {
		return PostQuery{}, apperr.BadRequest("Query parameter is required")
	}
	return PostQuery{
		Filter: Filter{Keyword: keyword},
		Sort:   newestFirst(),
		Window: b.Window(page, limit),
	}, nil
}

// SplitTags splits a comma separated list, dropping blanks and duplicates.
func SplitTags(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	seen := make(map[string]bool)
	var tags []string
	for _, part := range strings.Split(input, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func newestFirst() Sort {
	return Sort{Field: SortCreatedAt, Desc: true}
}

func positiveOr(value string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 {
		return def
	}
	return n
}
