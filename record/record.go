package record

import (
	"sort"
	"strings"
	"time"

	getsafe "github.com/w-h-a/mosaic/util/get_safe"
)

const (
	AccessPublic   = "public"
	AccessPersonal = "personal"
)

const (
	SourceDocument = "document"
	SourceNote     = "note"
	SourceActivity = "activity"
)

// Content is one chunk of an ingested document, note, or activity.
// All chunks of a parent share ParentId and TotalChunks.
type Content struct {
	Id          string    `json:"id"`
	ParentId    string    `json:"parent_id"`
	OwnerId     string    `json:"owner_id"`
	Access      string    `json:"access"`
	Categories  []string  `json:"categories"`
	SourceType  string    `json:"source_type"`
	Text        string    `json:"text"`
	ChunkIndex  int       `json:"chunk_index"`
	TotalChunks int       `json:"total_chunks"`
	FirstChunk  bool      `json:"is_first_chunk"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NormalizeCategories lowercases, trims, dedupes, and sorts so that
// set operations downstream never see three spellings of one category.
func NormalizeCategories(categories []string) []string {
	seen := map[string]struct{}{}
	normalized := make([]string, 0, len(categories))

	for _, c := range categories {
		c = strings.ToLower(strings.TrimSpace(c))
		if len(c) == 0 {
			continue
		}
		if _, exists := seen[c]; exists {
			continue
		}
		seen[c] = struct{}{}
		normalized = append(normalized, c)
	}

	sort.Strings(normalized)

	return normalized
}

func (c Content) ToMetadata() map[string]any {
	return map[string]any{
		"parent_id":      c.ParentId,
		"owner_id":       c.OwnerId,
		"access":         c.Access,
		"categories":     NormalizeCategories(c.Categories),
		"source_type":    c.SourceType,
		"text":           c.Text,
		"chunk_index":    c.ChunkIndex,
		"total_chunks":   c.TotalChunks,
		"is_first_chunk": c.FirstChunk,
		"created_at":     c.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":     c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func FromMetadata(id string, metadata map[string]any) Content {
	c := Content{
		Id:          id,
		ParentId:    getsafe.String(metadata, "parent_id"),
		OwnerId:     getsafe.String(metadata, "owner_id"),
		Access:      getsafe.String(metadata, "access"),
		Categories:  getsafe.Strings(metadata, "categories"),
		SourceType:  getsafe.String(metadata, "source_type"),
		Text:        getsafe.String(metadata, "text"),
		ChunkIndex:  getsafe.Int(metadata, "chunk_index"),
		TotalChunks: getsafe.Int(metadata, "total_chunks"),
		FirstChunk:  getsafe.Bool(metadata, "is_first_chunk"),
	}

	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, getsafe.String(metadata, "created_at"))
	c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, getsafe.String(metadata, "updated_at"))

	return c
}
