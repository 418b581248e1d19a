package projector

import (
	"errors"
	"math"
)

// Point is one projected vector, labeled for display. Points are derived on
// every request and never persisted.
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	SourceType string  `json:"source_type"`
	SourceId   string  `json:"source_id"`
}

// Reducer projects high-dimensional vectors down to a small number of
// dimensions for display. It is a pure function of its input: no external
// calls, no state, deterministic for a fixed batch size.
type Reducer struct {
	options Options
}

// Reduce maps each input vector to targetDims coordinates. Small inputs get
// fixed placements; larger sets go through batch normalization, a
// principal-component projection, and symmetric min-max rescaling. Numerical
// failure degrades to the raw leading components, never to an error.
func (r *Reducer) Reduce(vectors [][]float32, targetDims int) [][]float64 {
	if targetDims < 1 {
		targetDims = 3
	}

	switch len(vectors) {
	case 0:
		return [][]float64{}
	case 1:
		return [][]float64{make([]float64, targetDims)}
	case 2:
		left := make([]float64, targetDims)
		right := make([]float64, targetDims)
		left[0] = -1
		right[0] = 1
		return [][]float64{left, right}
	}

	normalized := r.normalizeBatches(vectors)

	projected, err := project(normalized, targetDims, r.options.Iterations)
	if err != nil {
		projected = rawComponents(vectors, targetDims)
	}

	r.rescale(projected, targetDims)

	return projected
}

// normalizeBatches L2-normalizes every vector, working through the input in
// fixed-size batches to bound peak allocation. A zero vector's magnitude is
// treated as 1 so it passes through unchanged.
func (r *Reducer) normalizeBatches(vectors [][]float32) [][]float64 {
	batchSize := r.options.BatchSize
	if batchSize < 1 {
		batchSize = len(vectors)
	}

	normalized := make([][]float64, 0, len(vectors))

	for start := 0; start < len(vectors); start += batchSize {
		end := start + batchSize
		if end > len(vectors) {
			end = len(vectors)
		}

		for _, vector := range vectors[start:end] {
			out := make([]float64, len(vector))

			var sum float64
			for i, v := range vector {
				out[i] = float64(v)
				sum += float64(v) * float64(v)
			}

			magnitude := math.Sqrt(sum)
			if magnitude == 0 {
				magnitude = 1
			}

			for i := range out {
				out[i] /= magnitude
			}

			normalized = append(normalized, out)
		}
	}

	return normalized
}

// project computes the top principal components by power iteration with
// deflation and projects every centered vector onto them.
func project(vectors [][]float64, targetDims int, iterations int) ([][]float64, error) {
	n := len(vectors)
	dims := len(vectors[0])

	for _, vector := range vectors {
		if len(vector) != dims {
			return nil, errors.New("inconsistent dimensionality")
		}
	}

	if iterations < 1 {
		iterations = 50
	}

	mean := make([]float64, dims)
	for _, vector := range vectors {
		for i, v := range vector {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(n)
	}

	centered := make([][]float64, n)
	for i, vector := range vectors {
		row := make([]float64, dims)
		for j, v := range vector {
			row[j] = v - mean[j]
		}
		centered[i] = row
	}

	components := make([][]float64, 0, targetDims)

	for k := 0; k < targetDims && k < dims; k++ {
		component, err := powerIterate(centered, components, k, iterations)
		if err != nil {
			return nil, err
		}
		components = append(components, component)
	}

	projected := make([][]float64, n)
	for i, row := range centered {
		coords := make([]float64, targetDims)
		for k, component := range components {
			coords[k] = dot(row, component)
		}
		projected[i] = coords
	}

	return projected, nil
}

// powerIterate finds the dominant eigenvector of the centered data's
// covariance, orthogonal to the components already extracted. The starting
// vector is deterministic so identical input always yields identical output.
func powerIterate(centered [][]float64, previous [][]float64, index int, iterations int) ([]float64, error) {
	dims := len(centered[0])

	v := make([]float64, dims)
	for i := range v {
		// deterministic, component-dependent seed with no zeros
		v[i] = 1 + math.Mod(float64(i*(index+3)+1)*0.61803398875, 1)
	}
	orthogonalize(v, previous)
	if err := normalize(v); err != nil {
		return nil, err
	}

	for iter := 0; iter < iterations; iter++ {
		// covariance times v without materializing the matrix
		next := make([]float64, dims)
		for _, row := range centered {
			scale := dot(row, v)
			for j, value := range row {
				next[j] += scale * value
			}
		}

		orthogonalize(next, previous)

		if err := normalize(next); err != nil {
			return nil, err
		}

		v = next
	}

	for _, value := range v {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, errors.New("power iteration diverged")
		}
	}

	return v, nil
}

func orthogonalize(v []float64, previous [][]float64) {
	for _, p := range previous {
		scale := dot(v, p)
		for i := range v {
			v[i] -= scale * p[i]
		}
	}
}

func normalize(v []float64) error {
	var sum float64
	for _, value := range v {
		sum += value * value
	}

	magnitude := math.Sqrt(sum)
	if magnitude < 1e-12 {
		return errors.New("degenerate direction")
	}

	for i := range v {
		v[i] /= magnitude
	}

	return nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// rawComponents is the projection fallback: the leading targetDims raw
// components of each vector, zero-padded when the source is smaller.
func rawComponents(vectors [][]float32, targetDims int) [][]float64 {
	projected := make([][]float64, len(vectors))

	for i, vector := range vectors {
		coords := make([]float64, targetDims)
		for k := 0; k < targetDims && k < len(vector); k++ {
			coords[k] = float64(vector[k])
		}
		projected[i] = coords
	}

	return projected
}

// rescale maps each output dimension independently onto [-scale, scale].
func (r *Reducer) rescale(projected [][]float64, targetDims int) {
	scale := r.options.Scale
	if scale <= 0 {
		scale = 10
	}

	for k := 0; k < targetDims; k++ {
		min, max := math.Inf(1), math.Inf(-1)
		for _, coords := range projected {
			if coords[k] < min {
				min = coords[k]
			}
			if coords[k] > max {
				max = coords[k]
			}
		}

		if min == max {
			max = min + 1
		}

		for _, coords := range projected {
			coords[k] = ((coords[k]-min)/(max-min))*2*scale - scale
		}
	}
}

func New(opts ...Option) *Reducer {
	options := NewOptions(opts...)

	return &Reducer{
		options: options,
	}
}
