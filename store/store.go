package store

import (
	"context"
	"errors"
)

// ErrUnavailable indicates a transport-level failure talking to the index.
var ErrUnavailable = errors.New("vector store unavailable")

// Store is a filterable nearest-neighbor index. Upsert with an existing id
// overwrites.
type Store interface {
	Upsert(ctx context.Context, points []Point) error
	Query(ctx context.Context, vector []float32, limit int, filter map[string]any, withVectors bool) ([]Result, error)
	DeleteByFilter(ctx context.Context, filter map[string]any) error
}

// Well-known filter keys. A store matches every key present in the filter:
//
//	parent_id    exact match
//	owner_id     exact match
//	access       exact match
//	source_type  exact match
//	categories   []string, record must carry at least one
//	visible_to   owner_id equals the value OR access is public
const (
	FilterParentId   = "parent_id"
	FilterOwnerId    = "owner_id"
	FilterAccess     = "access"
	FilterSourceType = "source_type"
	FilterCategories = "categories"
	FilterVisibleTo  = "visible_to"
)
