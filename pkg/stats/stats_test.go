// SPDX-License-Identifier: Apache-2.0

package stats_test

import (
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/qbench/pkg/stats"
)

func ms(values ...int) []time.Duration {
	out := make([]time.Duration, len(values))
	for i, v := range values {
		out[i] = time.Duration(v) * time.Millisecond
	}
	return out
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	st, err := stats.Summarize(ms(1, 2, 3, 4, 5))
	require.NoError(t, err)

	assert.Equal(t, 5, st.Count)
	assert.Equal(t, 1*time.Millisecond, st.Min)
	assert.Equal(t, 5*time.Millisecond, st.Max)
	assert.Equal(t, 3*time.Millisecond, st.Mean)
	assert.Equal(t, 3*time.Millisecond, st.Median)
	assert.InDelta(t, 1.5811*float64(time.Millisecond), float64(st.StdDev), 0.001*float64(time.Millisecond))
	assert.Equal(t, 5*time.Millisecond, st.P90)
	assert.Equal(t, 5*time.Millisecond, st.P99)
}

func TestSummarizeSingleSample(t *testing.T) {
	t.Parallel()

	st, err := stats.Summarize(ms(42))
	require.NoError(t, err)

	assert.Equal(t, 1, st.Count)
	assert.Equal(t, time.Duration(0), st.StdDev)
	assert.Equal(t, 42*time.Millisecond, st.Mean)
	assert.Equal(t, 42*time.Millisecond, st.Median)
	assert.Equal(t, 42*time.Millisecond, st.P99)
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	_, err := stats.Summarize(nil)
	assert.ErrorIs(t, err, stats.ErrEmptySampleSet)

	_, err = stats.Summarize([]time.Duration{})
	assert.ErrorIs(t, err, stats.ErrEmptySampleSet)
}

func TestSummarizeEvenCountMedian(t *testing.T) {
	t.Parallel()

	st, err := stats.Summarize(ms(4, 1, 3, 2))
	require.NoError(t, err)

	assert.Equal(t, 2500*time.Microsecond, st.Median)
}

func TestSummarizePreservesSampleOrder(t *testing.T) {
	t.Parallel()

	input := ms(5, 1, 4, 2, 3)
	st, err := stats.Summarize(input)
	require.NoError(t, err)

	assert.Equal(t, ms(5, 1, 4, 2, 3), st.Samples)
	assert.Equal(t, ms(5, 1, 4, 2, 3), input, "input must not be reordered")

	st.Samples[0] = 0
	assert.Equal(t, 5*time.Millisecond, input[0], "statistics must not alias the input")
}

func TestSummarizeOrderIndependent(t *testing.T) {
	t.Parallel()

	a, err := stats.Summarize(ms(9, 3, 7, 1, 5, 8))
	require.NoError(t, err)
	b, err := stats.Summarize(ms(1, 3, 5, 7, 8, 9))
	require.NoError(t, err)

	assert.Equal(t, a.Mean, b.Mean)
	assert.Equal(t, a.StdDev, b.StdDev)
	assert.Equal(t, a.Median, b.Median)
}

func TestSummarizeInvariants(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := 1 + rnd.Intn(50)
		samples := make([]time.Duration, n)
		for j := range samples {
			samples[j] = time.Duration(rnd.Int63n(int64(time.Second)))
		}

		st, err := stats.Summarize(samples)
		require.NoError(t, err)

		assert.Equal(t, n, st.Count)
		assert.LessOrEqual(t, st.Min, st.Median)
		assert.LessOrEqual(t, st.Median, st.Max)
		assert.LessOrEqual(t, st.Min, st.Mean)
		assert.LessOrEqual(t, st.Mean, st.Max)
		assert.LessOrEqual(t, st.P90, st.P99)
		assert.GreaterOrEqual(t, st.StdDev, time.Duration(0))
	}
}

func TestMedianInterval(t *testing.T) {
	t.Parallel()

	st, err := stats.Summarize(ms(10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20))
	require.NoError(t, err)

	assert.LessOrEqual(t, st.MedianLo, st.Median)
	assert.GreaterOrEqual(t, st.MedianHi, st.Median)
}

func TestValue(t *testing.T) {
	t.Parallel()

	st, err := stats.Summarize(ms(1, 2, 9))
	require.NoError(t, err)

	assert.Equal(t, 4*time.Millisecond, st.Value(stats.MetricMean))
	assert.Equal(t, 2*time.Millisecond, st.Value(stats.MetricMedian))
}

func TestParseMetric(t *testing.T) {
	t.Parallel()

	m, err := stats.ParseMetric("median")
	require.NoError(t, err)
	assert.Equal(t, stats.MetricMedian, m)

	_, err = stats.ParseMetric("p95")
	assert.Error(t, err)
}

func BenchmarkSummarize(b *testing.B) {
	for _, n := range []int{10, 1_000, 100_000} {
		b.Run(strconv.Itoa(n), func(b *testing.B) {
			samples := make([]time.Duration, n)
			for i := range samples {
				samples[i] = time.Duration(rand.Int63n(int64(time.Second)))
			}

			b.ResetTimer()
			for range b.N {
				_, err := stats.Summarize(samples)
				require.NoError(b, err)
			}
		})
	}
}
