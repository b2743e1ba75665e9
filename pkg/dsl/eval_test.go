package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/pkg/utils"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestEvalCandidate(t *testing.T) {
	c := &core.RestaurantCandidate{
		ID:          "p1",
		Name:        "Luce",
		Rating:      4.5,
		RatingCount: 120,
		PriceLevel:  intPtr(3),
		OpenNow:     boolPtr(true),
		Types:       []string{"restaurant", "bar"},
		Reviews:     []core.Review{{Text: "lovely"}},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{`candidate.rating > 3.9 && candidate.rating_count > 10`, true},
		{`candidate.rating > 4.6`, false},
		{`!has(candidate.price_level) || candidate.price_level <= 2`, false},
		{`candidate.open_now`, true},
		{`"bar" in candidate.types`, true},
		{`candidate.review_count >= 1 && candidate.name.startsWith("Lu")`, true},
		{`params.max_price == 3`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := p.EvalCandidate(c, map[string]any{"max_price": 3})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalCandidate_MissingOptionalFields(t *testing.T) {
	p := MustCompile(`!has(candidate.price_level) || candidate.price_level <= 2`)
	got, err := p.EvalCandidate(&core.RestaurantCandidate{ID: "p2"}, nil)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvalScored(t *testing.T) {
	sr := core.NewScoredRestaurant(core.RestaurantCandidate{ID: "p1", Rating: 4.2})
	sr.MoodScore = core.MoodScore{Mood: "date", Score: 7.5, EvidenceCount: 4, Confident: true}
	sr.PutLabel(utils.LabelScoreSource, utils.Label{Value: "model:keyword", Source: "scorer"})

	p := MustCompile(`candidate.confident && candidate.score >= 7.0 && label.score_source == "model:keyword"`)
	got, err := p.EvalScored(sr, nil)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(`candidate.rating >`)
	assert.Error(t, err)

	_, err = Compile(`1 + 2`)
	assert.Error(t, err, "non-boolean expression")
}
