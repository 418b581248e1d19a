package store

import "time"

type Point struct {
	Id       string
	Vector   []float32
	Metadata map[string]any
}

type Result struct {
	Id        string
	Score     float32
	Metadata  map[string]any
	Vector    []float32
	UpdatedAt time.Time
}
