package mapping

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize applies when the caller omits a size.
	DefaultPageSize = 20
	// MaxPageSize bounds a single page.
	MaxPageSize = 2000
)

// sortColumns is the allow-list of sortable fields and their columns.
var sortColumns = map[string]string{
	"legacyId":    "legacy_id",
	"newId":       "new_id",
	"label":       "label",
	"mappingType": "mapping_type",
	"createdAt":   "created_at",
}

// SortOrder is one validated sort term.
type SortOrder struct {
	Field      string // API field name.
	Column     string // Storage column.
	Descending bool
}

// PageRequest is a validated page index, page size and sort order.
type PageRequest struct {
	Page int
	Size int
	Sort []SortOrder
}

// Offset returns the number of rows preceding the requested page.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// NewPageRequest validates paging parameters. sorts holds "field" or
// "field,asc|desc" terms.
func NewPageRequest(page, size int, sorts []string) (PageRequest, error) {
	if page < 0 {
		return PageRequest{}, validationError("page must not be negative")
	}
	if size < 1 || size > MaxPageSize {
		return PageRequest{}, validationError("size must be between 1 and %d", MaxPageSize)
	}
	if page > math.MaxInt/size {
		return PageRequest{}, validationError("page = %d is out of range for size %d", page, size)
	}
	req := PageRequest{Page: page, Size: size}
	for _, raw := range sorts {
		for _, term := range splitSortParam(raw) {
			order, err := parseSortTerm(term)
			if err != nil {
				return PageRequest{}, err
			}
			req.Sort = append(req.Sort, order)
		}
	}
	return req, nil
}

// ParsePageRequest parses query string values, applying defaults for blanks.
func ParsePageRequest(pageRaw, sizeRaw string, sorts []string) (PageRequest, error) {
	page := 0
	if trimmed := strings.TrimSpace(pageRaw); trimmed != "" {
		parsed, errParse := strconv.Atoi(trimmed)
		if errParse != nil {
			return PageRequest{}, validationError("page = %s is not a number", trimmed)
		}
		page = parsed
	}
	size := DefaultPageSize
	if trimmed := strings.TrimSpace(sizeRaw); trimmed != "" {
		parsed, errParse := strconv.Atoi(trimmed)
		if errParse != nil {
			return PageRequest{}, validationError("size = %s is not a number", trimmed)
		}
		size = parsed
	}
	return NewPageRequest(page, size, sorts)
}

// splitSortParam turns "legacyId,asc" into one term and "legacyId,newId,desc" into
// two terms that share the trailing direction.
func splitSortParam(raw string) []string {
	parts := strings.Split(raw, ",")
	direction := ""
	if n := len(parts); n > 1 {
		last := strings.ToLower(strings.TrimSpace(parts[n-1]))
		if last == "asc" || last == "desc" {
			direction = last
			parts = parts[:n-1]
		}
	}
	terms := make([]string, 0, len(parts))
	for _, part := range parts {
		field := strings.TrimSpace(part)
		if field == "" {
			continue
		}
		if direction != "" {
			field += "," + direction
		}
		terms = append(terms, field)
	}
	return terms
}

func parseSortTerm(term string) (SortOrder, error) {
	field, direction, _ := strings.Cut(term, ",")
	column, ok := sortColumns[field]
	if !ok {
		return SortOrder{}, validationError("sort field = %s is not supported", field)
	}
	return SortOrder{Field: field, Column: column, Descending: direction == "desc"}, nil
}

// Page is one slice of a larger result set.
type Page[T any] struct {
	Content          []T   `json:"content"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	Number           int   `json:"number"`
	Size             int   `json:"size"`
	NumberOfElements int   `json:"numberOfElements"`
}

// NewPage assembles the page envelope for content fetched with req.
func NewPage[T any](content []T, total int64, req PageRequest) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Number:           req.Page,
		Size:             req.Size,
		NumberOfElements: len(content),
	}
}

// MapPage converts page content while keeping the paging metadata.
func MapPage[T, U any](page Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(page.Content))
	for _, item := range page.Content {
		out = append(out, fn(item))
	}
	return Page[U]{
		Content:          out,
		TotalElements:    page.TotalElements,
		TotalPages:       page.TotalPages,
		Number:           page.Number,
		Size:             page.Size,
		NumberOfElements: page.NumberOfElements,
	}
}
