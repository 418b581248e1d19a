package projector

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceEmptyInput(t *testing.T) {
	reducer := New()

	assert.Empty(t, reducer.Reduce(nil, 3))
}

func TestReduceSingleVectorSitsAtOrigin(t *testing.T) {
	reducer := New()

	projected := reducer.Reduce([][]float32{{0.1, 0.2, 0.3, 0.4}}, 3)

	require.Len(t, projected, 1)
	assert.Equal(t, []float64{0, 0, 0}, projected[0])
}

func TestReduceTwoVectorsGetFixedPlacement(t *testing.T) {
	reducer := New()

	projected := reducer.Reduce([][]float32{
		{0.1, 0.2, 0.3},
		{0.9, 0.8, 0.7},
	}, 3)

	require.Len(t, projected, 2)
	assert.Equal(t, []float64{-1, 0, 0}, projected[0])
	assert.Equal(t, []float64{1, 0, 0}, projected[1])
}

func randomVectors(n, dims int, seed int64) [][]float32 {
	rng := rand.New(rand.NewSource(seed))

	vectors := make([][]float32, n)
	for i := range vectors {
		vector := make([]float32, dims)
		for j := range vector {
			vector[j] = rng.Float32()*2 - 1
		}
		vectors[i] = vector
	}

	return vectors
}

func TestReduceOutputShapeAndRange(t *testing.T) {
	reducer := New()

	vectors := randomVectors(40, 64, 1)
	projected := reducer.Reduce(vectors, 3)

	require.Len(t, projected, len(vectors))

	for _, coords := range projected {
		require.Len(t, coords, 3)
		for _, value := range coords {
			assert.False(t, math.IsNaN(value))
			assert.False(t, math.IsInf(value, 0))
			assert.GreaterOrEqual(t, value, -10.0)
			assert.LessOrEqual(t, value, 10.0)
		}
	}
}

func TestReduceCoversFullRangePerDimension(t *testing.T) {
	reducer := New()

	projected := reducer.Reduce(randomVectors(25, 16, 2), 3)

	for k := 0; k < 3; k++ {
		min, max := math.Inf(1), math.Inf(-1)
		for _, coords := range projected {
			min = math.Min(min, coords[k])
			max = math.Max(max, coords[k])
		}
		assert.InDelta(t, -10.0, min, 1e-9)
		assert.InDelta(t, 10.0, max, 1e-9)
	}
}

func TestReduceIsDeterministic(t *testing.T) {
	reducer := New()

	vectors := randomVectors(30, 32, 3)

	first := reducer.Reduce(vectors, 3)
	second := reducer.Reduce(vectors, 3)

	assert.Equal(t, first, second)
}

func TestReduceIdenticalVectorsDoNotProduceNaN(t *testing.T) {
	reducer := New()

	// zero variance defeats the principal-component path; the fallback
	// still has to produce finite, in-range coordinates
	vectors := make([][]float32, 5)
	for i := range vectors {
		vectors[i] = []float32{0.5, 0.5, 0.5, 0.5}
	}

	projected := reducer.Reduce(vectors, 3)

	require.Len(t, projected, 5)
	for _, coords := range projected {
		for _, value := range coords {
			assert.False(t, math.IsNaN(value))
			assert.False(t, math.IsInf(value, 0))
			assert.GreaterOrEqual(t, value, -10.0)
			assert.LessOrEqual(t, value, 10.0)
		}
	}
}

func TestReduceZeroVectorsPassThrough(t *testing.T) {
	reducer := New()

	vectors := [][]float32{
		make([]float32, 8),
		make([]float32, 8),
		make([]float32, 8),
	}
	vectors[1][0] = 1
	vectors[2][3] = 1

	projected := reducer.Reduce(vectors, 3)

	require.Len(t, projected, 3)
	for _, coords := range projected {
		for _, value := range coords {
			assert.False(t, math.IsNaN(value))
		}
	}
}

func TestReducePreservesNeighborhoods(t *testing.T) {
	reducer := New()

	// two tight clusters far apart must stay separated after projection
	vectors := make([][]float32, 0, 10)
	for i := 0; i < 5; i++ {
		vectors = append(vectors, []float32{1 + float32(i)*0.01, 0, 0, 0})
	}
	for i := 0; i < 5; i++ {
		vectors = append(vectors, []float32{0, 0, 0, 1 + float32(i)*0.01})
	}

	projected := reducer.Reduce(vectors, 3)

	clusterDistance := func(a, b []float64) float64 {
		var sum float64
		for i := range a {
			sum += (a[i] - b[i]) * (a[i] - b[i])
		}
		return math.Sqrt(sum)
	}

	within := clusterDistance(projected[0], projected[4])
	across := clusterDistance(projected[0], projected[9])

	assert.Greater(t, across, within)
}

func TestReduceHonorsCustomScale(t *testing.T) {
	reducer := New(WithScale(1))

	projected := reducer.Reduce(randomVectors(10, 8, 4), 3)

	for _, coords := range projected {
		for _, value := range coords {
			assert.GreaterOrEqual(t, value, -1.0)
			assert.LessOrEqual(t, value, 1.0)
		}
	}
}
