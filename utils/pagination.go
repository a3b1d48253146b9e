package utils

import (
	"errors"
	"fmt"
)

var ErrInvalidArgument = errors.New("invalid argument")

type Offset struct {
	Skip  int
	Limit int
}

// PageInfo describes one page of a paginated result.
type PageInfo struct {
	TotalDocs   int64 `json:"totalDocs"`
	Limit       int   `json:"limit"`
	Page        int   `json:"page"`
	TotalPages  int64 `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	NextPage    *int  `json:"nextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	PrevPage    *int  `json:"prevPage"`
}

// ComputeOffset converts a 1-based page and a page size into a skip/limit pair.
func ComputeOffset(page, limit int) (Offset, error) {
	if page < 1 {
		return Offset{}, fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidArgument, page)
	}
	if limit < 1 {
		return Offset{}, fmt.Errorf("%w: limit must be >= 1, got %d", ErrInvalidArgument, limit)
	}
	return Offset{Skip: (page - 1) * limit, Limit: limit}, nil
}

func BuildPaginationMeta(page int, totalDocs int64, limit int) PageInfo {
	info := PageInfo{
		TotalDocs:   totalDocs,
		Limit:       limit,
		Page:        page,
		HasPrevPage: page > 1,
	}
	if limit > 0 {
		info.TotalPages = (totalDocs + int64(limit) - 1) / int64(limit)
		info.HasNextPage = totalDocs > int64(page)*int64(limit)
	}
	if info.HasNextPage {
		next := page + 1
		info.NextPage = &next
	}
	if info.HasPrevPage {
		prev := page - 1
		info.PrevPage = &prev
	}
	return info
}
