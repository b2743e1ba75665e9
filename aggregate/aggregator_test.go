package aggregate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/moodkit/core"
)

var moods = core.MustMoodSet("date", "budget")

func vectors(t *testing.T, dates ...float64) []core.MoodProbabilityVector {
	t.Helper()
	out := make([]core.MoodProbabilityVector, 0, len(dates))
	for _, p := range dates {
		v, err := core.NewMoodProbabilityVector(moods, map[string]float64{"date": p, "budget": 1 - p})
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func TestAggregateMood(t *testing.T) {
	agg := New(DefaultConfig())

	tests := []struct {
		name          string
		probs         []float64
		wantScore     float64
		wantEvidence  int
		wantConfident bool
		wantPositives int
	}{
		{"no reviews", nil, 0, 0, false, 0},
		{"four strong reviews", []float64{0.9, 0.9, 0.9, 0.9}, 9.0, 4, true, 4},
		{"single strong review lacks evidence", []float64{0.9}, 9.0, 1, false, 1},
		{"weak reviews lack signal", []float64{0.1, 0.2, 0.1, 0.0, 0.2}, 1.2, 5, false, 0},
		{"threshold is inclusive", []float64{0.5, 0.1, 0.0}, 2.0, 3, true, 1},
		{"all ones", []float64{1, 1, 1}, 10, 3, true, 3},
		{"all zeros", []float64{0, 0, 0}, 0, 3, false, 0},
		{"rounded to two decimals", []float64{0.333, 0.333, 0.334}, 3.33, 3, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := agg.AggregateMood(vectors(t, tt.probs...), "date")
			require.NoError(t, err)
			assert.Equal(t, core.Mood("date"), got.Mood)
			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.Equal(t, tt.wantEvidence, got.EvidenceCount)
			assert.Equal(t, tt.wantConfident, got.Confident)
			assert.Equal(t, tt.wantPositives, got.PositiveSignals)
		})
	}
}

func TestAggregateMood_CustomConfig(t *testing.T) {
	agg := New(Config{MinReviews: 1, ConfidenceThreshold: 0.8})

	got, err := agg.AggregateMood(vectors(t, 0.9), "date")
	require.NoError(t, err)
	assert.True(t, got.Confident)

	got, err = agg.AggregateMood(vectors(t, 0.7, 0.7), "date")
	require.NoError(t, err)
	assert.False(t, got.Confident, "0.7 is below the 0.8 threshold")
}

func TestAggregateMood_UnknownMoodIsContractViolation(t *testing.T) {
	agg := New(DefaultConfig())
	_, err := agg.AggregateMood(vectors(t, 0.4), "celebration")
	require.Error(t, err)
	assert.True(t, core.IsContractViolation(err))

	_, err = agg.AggregateMood([]core.MoodProbabilityVector{{}}, "date")
	assert.True(t, core.IsContractViolation(err), "zero-value vector has no moods")
}

func TestAggregate_MultipleMoods(t *testing.T) {
	agg := New(DefaultConfig())
	scores, err := agg.Aggregate(vectors(t, 0.8, 0.6, 0.7), "budget", "date")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, core.Mood("budget"), scores[0].Mood)
	assert.InDelta(t, 3.0, scores[0].Score, 1e-9)
	assert.False(t, scores[0].Confident)
	assert.Equal(t, core.Mood("date"), scores[1].Mood)
	assert.InDelta(t, 7.0, scores[1].Score, 1e-9)
	assert.True(t, scores[1].Confident)
}

func TestAggregateMood_RangeAndMonotonicity(t *testing.T) {
	agg := New(DefaultConfig())
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		n := 1 + rng.Intn(6)
		probs := make([]float64, n)
		for i := range probs {
			probs[i] = rng.Float64()
		}
		base, err := agg.AggregateMood(vectors(t, probs...), "date")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, base.Score, 0.0)
		assert.LessOrEqual(t, base.Score, 10.0)

		i := rng.Intn(n)
		raised := append([]float64(nil), probs...)
		raised[i] = probs[i] + (1-probs[i])*rng.Float64()
		higher, err := agg.AggregateMood(vectors(t, raised...), "date")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, higher.Score, base.Score, "raising p[%d] must not lower the score", i)
	}
}
