package engine

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBin(t *testing.T) {
	tab := tenRows(t)

	t.Run("right-closed last interval", func(t *testing.T) {
		st, err := Bin(tab, "score", 4)
		require.NoError(t, err)

		assert.Equal(t, []int{2, 2, 2, 4}, st.Counts)
		assert.InDeltaSlice(t, []float64{0.2, 0.2, 0.2, 0.4}, st.Fractions, 1e-9)
		assert.Equal(t, []float64{0, 5, 10, 15, 20}, st.Edges)
		assert.Equal(t, []float64{0, 20}, st.Spec.Range)
		assert.Equal(t, UniformWidth, st.Spec.Strategy)
		assert.Equal(t, 10, st.Total)
		assert.False(t, st.Degenerate)

		assert.Equal(t, []int{0, 5}, st.Members(0))
		assert.Equal(t, []int{3, 4, 8, 9}, st.Members(3))
		assert.Nil(t, st.Members(4))
	})

	t.Run("edges follow the scope", func(t *testing.T) {
		st, err := Bin(tab.Select([]int{1, 2, 3}), "score", 2)
		require.NoError(t, err)

		assert.Equal(t, []float64{5, 15}, st.Spec.Range)
		assert.Equal(t, []int{1, 2}, st.Counts)
		// Members are reported as original row indices.
		assert.Equal(t, []int{1}, st.Members(0))
		assert.Equal(t, []int{2, 3}, st.Members(1))
	})

	t.Run("empty scope", func(t *testing.T) {
		st, err := Bin(tab.Select(nil), "score", 3)
		require.NoError(t, err)

		assert.Equal(t, []int{0, 0, 0}, st.Counts)
		assert.Equal(t, []float64{0, 0, 0}, st.Fractions)
		assert.Nil(t, st.Spec.Range)
		assert.Zero(t, st.Total)
	})

	t.Run("zero variance", func(t *testing.T) {
		st, err := Bin(tab, "constant", 5)
		require.NoError(t, err)

		assert.True(t, st.Degenerate)
		assert.Equal(t, []int{0, 0, 0, 0, 0}, st.Counts)
		assert.Equal(t, []float64{0, 0, 0, 0, 0}, st.Fractions)
		assert.Equal(t, 10, st.Total)
	})

	t.Run("single bin", func(t *testing.T) {
		st, err := Bin(tab, "G3", 1)
		require.NoError(t, err)
		assert.Equal(t, []int{10}, st.Counts)
		assert.InDelta(t, 1.0, st.Fractions[0], 1e-9)
	})

	t.Run("fractional values on an edge go to the upper bin", func(t *testing.T) {
		frac, err := BuildTable("ratio", []float64{0.1, 0.25, 0.4})
		require.NoError(t, err)

		st, err := Bin(frac, "ratio", 2)
		require.NoError(t, err)
		require.Len(t, st.Edges, 3)
		assert.Equal(t, 0.25, st.Edges[1])
		assert.Equal(t, []int{1, 2}, st.Counts)
		assert.Equal(t, []int{0}, st.Members(0))
		assert.Equal(t, []int{1, 2}, st.Members(1))
	})

	t.Run("boolean column", func(t *testing.T) {
		st, err := Bin(tab, "sex", 2)
		require.NoError(t, err)
		assert.Equal(t, []int{5, 5}, st.Counts)
	})
}

func TestBinConfigurationErrors(t *testing.T) {
	tab := tenRows(t)

	tests := []struct {
		name   string
		column string
		bins   int
	}{
		{"unknown column", "nope", 4},
		{"string column", "school", 4},
		{"zero bins", "score", 0},
		{"negative bins", "score", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Bin(tab, tt.column, tt.bins)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))

			var ce *ConfigurationError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.column, ce.Value)
		})
	}
}

func TestBinConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		n := rng.Intn(200)
		values := make([]float64, n)
		for i := range values {
			values[i] = rng.NormFloat64() * 10
		}
		tab, err := BuildTable("x", values)
		require.NoError(t, err)

		scope := make([]int, 0, n)
		for i := 0; i < n; i++ {
			if rng.Intn(2) == 0 {
				scope = append(scope, i)
			}
		}
		bins := 1 + rng.Intn(12)

		st, err := Bin(tab.Select(scope), "x", bins)
		require.NoError(t, err)

		sum, frac := 0, 0.0
		for b := range st.Counts {
			sum += st.Counts[b]
			frac += st.Fractions[b]
		}
		if st.Degenerate {
			assert.Zero(t, sum)
			continue
		}
		assert.Equal(t, len(scope), sum, "trial %d", trial)
		if len(scope) == 0 {
			assert.Zero(t, frac)
		} else {
			assert.InDelta(t, 1.0, frac, 1e-9, "trial %d", trial)
		}
	}
}

func TestBinAssignmentMatchesEdges(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(10)
		values := make([]float64, 20)
		for i := range values {
			values[i] = float64(rng.Intn(1000)) / 100
		}
		tab, err := BuildTable("x", values)
		require.NoError(t, err)

		st, err := Bin(tab, "x", n)
		require.NoError(t, err)
		if st.Degenerate {
			continue
		}
		// Members of bin b lie in [Edges[b], Edges[b+1]).
		for b := 0; b < n; b++ {
			for _, r := range st.Members(b) {
				v := values[r]
				assert.GreaterOrEqual(t, v, st.Edges[b], "trial %d bin %d", trial, b)
				if b < n-1 {
					assert.Less(t, v, st.Edges[b+1], "trial %d bin %d", trial, b)
				}
			}
		}
	}
}
