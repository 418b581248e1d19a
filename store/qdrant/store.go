package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/w-h-a/mosaic/store"
	getsafe "github.com/w-h-a/mosaic/util/get_safe"
)

type qdrantStore struct {
	options store.Options
	client  *http.Client
}

func (s *qdrantStore) Upsert(ctx context.Context, points []store.Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]map[string]any, 0, len(points))

	for _, point := range points {
		if s.options.VectorSize > 0 && len(point.Vector) != s.options.VectorSize {
			return fmt.Errorf("vector %s has dimension %d, store expects %d", point.Id, len(point.Vector), s.options.VectorSize)
		}

		qdrantPoints = append(qdrantPoints, map[string]any{
			"id":      point.Id,
			"vector":  point.Vector,
			"payload": point.Metadata,
		})
	}

	req := map[string]any{
		"points": qdrantPoints,
	}

	var rsp envelope[json.RawMessage]

	path := fmt.Sprintf("/collections/%s/points?wait=true", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPut, path, req, &rsp); err != nil {
		return err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") && len(rsp.Status.Error) > 0 {
		return errors.New(rsp.Status.Error)
	}

	return nil
}

func (s *qdrantStore) Query(ctx context.Context, vector []float32, limit int, filter map[string]any, withVectors bool) ([]store.Result, error) {
	if limit < 1 {
		return nil, nil
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_vector":  withVectors,
		"with_payload": true,
	}

	if clauses := buildFilter(filter); clauses != nil {
		req["filter"] = clauses
	}

	var rsp envelope[[]scoredPoint]

	path := fmt.Sprintf("/collections/%s/points/search", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return nil, err
	}

	results := make([]store.Result, 0, len(rsp.Result))

	for _, point := range rsp.Result {
		updatedAt, _ := time.Parse(time.RFC3339Nano, getsafe.String(point.Payload, "updated_at"))

		results = append(results, store.Result{
			Id:        point.Id,
			Score:     float32(point.Score),
			Metadata:  point.Payload,
			Vector:    point.Vector,
			UpdatedAt: updatedAt,
		})
	}

	return results, nil
}

func (s *qdrantStore) DeleteByFilter(ctx context.Context, filter map[string]any) error {
	req := map[string]any{
		"filter": buildFilter(filter),
	}

	var rsp envelope[json.RawMessage]

	path := fmt.Sprintf("/collections/%s/points/delete?wait=true", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") && len(rsp.Status.Error) > 0 {
		return errors.New(rsp.Status.Error)
	}

	return nil
}

func buildFilter(filter map[string]any) map[string]any {
	if len(filter) == 0 {
		return nil
	}

	must := []map[string]any{}
	should := []map[string]any{}

	for key, want := range filter {
		switch key {
		case store.FilterParentId, store.FilterOwnerId, store.FilterAccess, store.FilterSourceType:
			must = append(must, map[string]any{
				"key":   key,
				"match": map[string]any{"value": want},
			})
		case store.FilterVisibleTo:
			should = append(should,
				map[string]any{
					"key":   store.FilterOwnerId,
					"match": map[string]any{"value": want},
				},
				map[string]any{
					"key":   store.FilterAccess,
					"match": map[string]any{"value": "public"},
				},
			)
		case store.FilterCategories:
			categories, ok := want.([]string)
			if !ok || len(categories) == 0 {
				continue
			}
			must = append(must, map[string]any{
				"key":   store.FilterCategories,
				"match": map[string]any{"any": categories},
			})
		}
	}

	clauses := map[string]any{}
	if len(must) > 0 {
		clauses["must"] = must
	}
	if len(should) > 0 {
		clauses["should"] = should
	}

	if len(clauses) == 0 {
		return nil
	}

	return clauses
}

func (s *qdrantStore) do(ctx context.Context, method string, path string, req any, rsp any) error {
	u := s.options.Location + path
	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")

	if len(s.options.ApiKey) > 0 {
		request.Header.Set("api-key", s.options.ApiKey)
		request.Header.Set("Authorization", "Bearer "+s.options.ApiKey)
	}

	response, err := s.client.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("qdrant http %d: %s", response.StatusCode, string(payload))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}

	return nil
}

func (s *qdrantStore) configure() error {
	exists, err := s.collectionExists()
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return s.createCollection()
}

func (s *qdrantStore) collectionExists() (bool, error) {
	path := fmt.Sprintf("/collections/%s", url.PathEscape(s.options.Collection))

	var rsp envelope[json.RawMessage]

	err := s.do(context.Background(), http.MethodGet, path, nil, &rsp)
	if err != nil {
		if strings.Contains(err.Error(), "404") {
			return false, nil
		}
		return false, err
	}

	return strings.EqualFold(rsp.Status.State, "ok"), nil
}

func (s *qdrantStore) createCollection() error {
	distance := s.options.Distance
	if len(distance) == 0 {
		distance = "Cosine"
	}
	req := map[string]any{
		"vectors": map[string]any{
			"size":     s.options.VectorSize,
			"distance": distance,
		},
	}

	path := fmt.Sprintf("/collections/%s", url.PathEscape(s.options.Collection))

	var rsp envelope[json.RawMessage]

	if err := s.do(context.Background(), http.MethodPut, path, req, &rsp); err != nil {
		return err
	}

	if !strings.EqualFold(rsp.Status.State, "ok") {
		return errors.New(rsp.Status.Error)
	}

	return nil
}

func NewStore(opts ...store.Option) store.Store {
	options := store.NewOptions(opts...)

	if len(options.Location) == 0 ||
		len(options.Collection) == 0 ||
		options.VectorSize == 0 {
		panic("missing location, collection, or vector size for qdrant store")
	}

	client := &http.Client{
		Timeout: 15 * time.Second,
	}

	s := &qdrantStore{
		options: options,
		client:  client,
	}

	if err := s.configure(); err != nil {
		panic(err)
	}

	return s
}
