package store

import (
	"context"
	"time"
)

var (
	ContextTimeout = time.Duration(20) * time.Second
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// Pagination selects a window of a sorted result set
type Pagination struct {
	Offset int
	Limit  int
}

func DefaultPagination() Pagination {
	return Pagination{
		Offset: 0,
		Limit:  DefaultPageLimit,
	}
}

// WithLimit caps the limit at MaxPageLimit. Non-positive limits fall back to the default one.
func (p Pagination) WithLimit(limit int) Pagination {
	switch {
	case limit <= 0:
		p.Limit = DefaultPageLimit
	case limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	default:
		p.Limit = limit
	}
	return p
}

func (p Pagination) WithOffset(offset int) Pagination {
	if offset < 0 {
		offset = 0
	}
	p.Offset = offset
	return p
}

func NewDbContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), ContextTimeout)
}
