package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/logging"
	"github.com/rushteam/moodkit/model"
)

// tableClassifier 按文本查表返回 date 概率。
func tableClassifier(table map[string]float64) *model.FuncClassifier {
	return model.NewFuncClassifier("table", func(text string) (map[string]float64, error) {
		p, ok := table[text]
		if !ok {
			return nil, fmt.Errorf("unexpected text %q", text)
		}
		return map[string]float64{"celebration": 0.1, "date": p, "quick_bite": 0.1, "budget": 0.1}, nil
	})
}

func newEngine(t *testing.T, clf core.Classifier, mutate ...func(*Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := New(clf, core.MustMoodSet(core.DefaultMoods...), cfg, WithLogger(logging.Nop()))
	require.NoError(t, err)
	return e
}

func candidate(id string, rating float64, count int, texts ...string) core.RestaurantCandidate {
	c := core.RestaurantCandidate{ID: id, Name: "R-" + id, Rating: rating, RatingCount: count}
	for _, t := range texts {
		c.Reviews = append(c.Reviews, core.Review{Text: t})
	}
	return c
}

func ids(res *core.RankResult) []string {
	out := make([]string, len(res.Restaurants))
	for i, r := range res.Restaurants {
		out[i] = r.ID
	}
	return out
}

func TestRank_Scenario(t *testing.T) {
	table := map[string]float64{
		"x1": 0.9, "x2": 0.9, "x3": 0.9, "x4": 0.9,
		"y1": 0.9,
		"z1": 0.1, "z2": 0.2, "z3": 0.1, "z4": 0.0, "z5": 0.2,
	}
	e := newEngine(t, tableClassifier(table))

	candidates := []core.RestaurantCandidate{
		candidate("X", 4.5, 100, "x1", "x2", "x3", "x4"),
		candidate("Y", 4.8, 50, "y1"),
		candidate("Z", 4.0, 30, "z1", "z2", "z3", "z4", "z5"),
	}
	res, err := e.Rank(context.Background(), candidates, "date", 10)
	require.NoError(t, err)

	assert.Equal(t, core.Mood("date"), res.Mood)
	assert.Equal(t, []string{"X"}, ids(res))
	assert.Equal(t, 1, res.TotalFound)
	assert.Equal(t, core.MoodScore{Mood: "date", Score: 9.0, EvidenceCount: 4, Confident: true, PositiveSignals: 4}, res.Restaurants[0].MoodScore)

	y, err := e.Score(context.Background(), candidates[1], "date")
	require.NoError(t, err)
	assert.Equal(t, 1, y.MoodScore.EvidenceCount)
	assert.False(t, y.MoodScore.Confident)

	z, err := e.Score(context.Background(), candidates[2], "date")
	require.NoError(t, err)
	assert.InDelta(t, 1.2, z.MoodScore.Score, 1e-9)
	assert.False(t, z.MoodScore.Confident)
}

func TestRank_WithoutConfidenceGate(t *testing.T) {
	table := map[string]float64{"z1": 0.1, "z2": 0.2, "z3": 0.1}
	e := newEngine(t, tableClassifier(table), func(c *Config) { c.Scoring.RequireConfident = false })

	res, err := e.Rank(context.Background(), []core.RestaurantCandidate{candidate("Z", 4, 30, "z1", "z2", "z3")}, "date", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z"}, ids(res))
}

func TestRank_RankingThresholdBelowMinReviews(t *testing.T) {
	table := map[string]float64{"a1": 0.9, "a2": 0.9, "a3": 0.9, "a4": 0.9, "b1": 0.9, "b2": 0.9}
	e := newEngine(t, tableClassifier(table), func(c *Config) {
		c.Scoring.MinReviews = 5
		c.Scoring.MinReviewsForRanking = 3
	})

	res, err := e.Rank(context.Background(), []core.RestaurantCandidate{
		candidate("A", 4.5, 100, "a1", "a2", "a3", "a4"),
		candidate("B", 4.9, 100, "b1", "b2"),
	}, "date", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, ids(res))
	assert.Equal(t, 1, res.TotalFound)
	assert.Equal(t, 4, res.Restaurants[0].MoodScore.EvidenceCount)
	assert.False(t, res.Restaurants[0].MoodScore.Confident, "below the aggregator's own MinReviews")
}

func TestRank_DoesNotShareCandidateData(t *testing.T) {
	e := newEngine(t, tableClassifier(map[string]float64{"a1": 0.9, "a2": 0.9, "a3": 0.9}))
	candidates := []core.RestaurantCandidate{candidate("A", 4.5, 100, "a1", "a2", "a3")}

	res, err := e.Rank(context.Background(), candidates, "date", 10)
	require.NoError(t, err)
	require.Len(t, res.Restaurants, 1)

	res.Restaurants[0].Reviews[0].Text = "changed"
	assert.Equal(t, "a1", candidates[0].Reviews[0].Text)
}

func TestRank_InvalidInput(t *testing.T) {
	calls := 0
	clf := model.NewFuncClassifier("count", func(string) (map[string]float64, error) {
		calls++
		return nil, errors.New("should not be called")
	})
	e := newEngine(t, clf)
	cs := []core.RestaurantCandidate{candidate("A", 4, 10, "a", "b", "c")}

	tests := []struct {
		name string
		mood core.Mood
		max  int
	}{
		{"empty mood", "", 10},
		{"unknown mood", "brunch", 10},
		{"zero max results", "date", 0},
		{"negative max results", "date", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Rank(context.Background(), cs, tt.mood, tt.max)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, core.IsInvalidInput(err), "got %v", err)
		})
	}
	assert.Zero(t, calls, "validation happens before any scoring")
}

func TestRank_EmptyAndIneligible(t *testing.T) {
	e := newEngine(t, tableClassifier(map[string]float64{"a": 0.9}))

	res, err := e.Rank(context.Background(), nil, "date", 5)
	require.NoError(t, err)
	assert.Empty(t, res.Restaurants)
	assert.NotNil(t, res.Restaurants)
	assert.Zero(t, res.TotalFound)

	res, err = e.Rank(context.Background(), []core.RestaurantCandidate{candidate("A", 4, 10, "a"), candidate("B", 4, 10)}, "date", 5)
	require.NoError(t, err)
	assert.Empty(t, res.Restaurants)
	assert.Zero(t, res.TotalFound)

	body, err := gojson.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mood":"date","restaurants":[],"total_found":0}`, string(body))
}

func TestRank_TruncationAndTieBreaks(t *testing.T) {
	table := map[string]float64{"hi": 0.8, "mid": 0.6}
	e := newEngine(t, tableClassifier(table))

	three := func(text string) []string { return []string{text, text, text} }
	candidates := []core.RestaurantCandidate{
		candidate("d", 4.2, 10, three("mid")...),
		candidate("a", 4.9, 10, three("mid")...),
		candidate("c", 4.2, 90, three("mid")...),
		candidate("b", 3.0, 10, three("hi")...),
		candidate("e", 4.2, 10, three("mid")...),
	}
	want := []string{"b", "a", "c", "d", "e"}

	for k := 1; k <= 6; k++ {
		res, err := e.Rank(context.Background(), candidates, "date", k)
		require.NoError(t, err)
		assert.Equal(t, 5, res.TotalFound)
		assert.Len(t, res.Restaurants, min(k, res.TotalFound))
		assert.Equal(t, want[:min(k, 5)], ids(res))
	}
}

func TestRank_Deterministic(t *testing.T) {
	table := map[string]float64{}
	var candidates []core.RestaurantCandidate
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 25; i++ {
		var texts []string
		for j := 0; j < 3+rng.Intn(3); j++ {
			text := fmt.Sprintf("r%d-%d", i, j)
			table[text] = float64(rng.Intn(11)) / 10
			texts = append(texts, text)
		}
		candidates = append(candidates, candidate(fmt.Sprintf("p%02d", i), float64(30+rng.Intn(20))/10, rng.Intn(50), texts...))
	}
	e := newEngine(t, tableClassifier(table), func(c *Config) { c.Scoring.MaxConcurrentScoring = 8 })

	first, err := e.Rank(context.Background(), candidates, "date", 10)
	require.NoError(t, err)
	want, err := gojson.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		shuffled := append([]core.RestaurantCandidate(nil), candidates...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		res, err := e.Rank(context.Background(), shuffled, "date", 10)
		require.NoError(t, err)
		got, err := gojson.Marshal(res)
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got))
	}
}

func TestRank_ContractViolationExcludesCandidate(t *testing.T) {
	clf := model.NewFuncClassifier("partial", func(text string) (map[string]float64, error) {
		if text == "broken" {
			return map[string]float64{"date": 0.9}, nil
		}
		return map[string]float64{"celebration": 0, "date": 0.9, "quick_bite": 0, "budget": 0}, nil
	})
	e := newEngine(t, clf)

	res, err := e.Rank(context.Background(), []core.RestaurantCandidate{
		candidate("good", 4, 10, "ok", "ok", "ok"),
		candidate("bad", 4, 10, "ok", "broken", "ok"),
		candidate("blank", 4, 10, "ok", "", "ok"),
	}, "date", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, ids(res))
	assert.Equal(t, 1, res.TotalFound)
}

func TestRank_ModelUnavailableFailsRequest(t *testing.T) {
	clf := model.NewFuncClassifier("down", func(string) (map[string]float64, error) {
		return nil, errors.New("cuda: out of memory")
	})
	e := newEngine(t, clf)

	res, err := e.Rank(context.Background(), []core.RestaurantCandidate{
		candidate("a", 4, 10, "x", "y", "z"),
		candidate("b", 4, 10),
	}, "date", 10)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, core.IsModelUnavailable(err))
}

func TestRank_FilterExpr(t *testing.T) {
	table := map[string]float64{"hi": 0.9}
	e := newEngine(t, tableClassifier(table), func(c *Config) { c.Scoring.FilterExpr = `candidate.rating >= 4.0` })

	three := []string{"hi", "hi", "hi"}
	res, err := e.Rank(context.Background(), []core.RestaurantCandidate{
		candidate("low", 3.5, 10, three...),
		candidate("high", 4.5, 10, three...),
	}, "date", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"high"}, ids(res))

	_, err = New(tableClassifier(table), core.MustMoodSet("date"), Config{Scoring: ScoringConfig{FilterExpr: "candidate.rating >"}})
	assert.True(t, core.IsInvalidInput(err))
}

func TestNew_RequiresClassifier(t *testing.T) {
	_, err := New(nil, core.MustMoodSet("date"), DefaultConfig())
	assert.True(t, core.IsModelUnavailable(err))
}

func TestReady(t *testing.T) {
	e := newEngine(t, model.NewKeywordClassifier(nil))
	assert.NoError(t, e.Ready(context.Background()))
	assert.Equal(t, "keyword", e.ModelName())

	broken := newEngine(t, &model.FuncClassifier{ModelName: "empty"})
	assert.True(t, core.IsModelUnavailable(broken.Ready(context.Background())))
}
