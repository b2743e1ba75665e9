package rank

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/moodkit/core"
)

type stubScorer struct {
	scores   map[string]float64
	errs     map[string]error
	delay    time.Duration
	inFlight int32
	maxSeen  int32
	mu       sync.Mutex
	calls    []string
}

func (s *stubScorer) Score(_ context.Context, c core.RestaurantCandidate, mood core.Mood) (*core.ScoredRestaurant, error) {
	cur := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		old := atomic.LoadInt32(&s.maxSeen)
		if cur <= old || atomic.CompareAndSwapInt32(&s.maxSeen, old, cur) {
			break
		}
	}
	time.Sleep(s.delay)

	s.mu.Lock()
	s.calls = append(s.calls, c.ID)
	s.mu.Unlock()

	if err := s.errs[c.ID]; err != nil {
		return nil, err
	}
	out := core.NewScoredRestaurant(c)
	out.MoodScore = core.MoodScore{Mood: mood, Score: s.scores[c.ID], EvidenceCount: 3, Confident: true}
	return out, nil
}

func items(ids ...string) []*core.ScoredRestaurant {
	out := make([]*core.ScoredRestaurant, len(ids))
	for i, id := range ids {
		out[i] = core.NewScoredRestaurant(core.RestaurantCandidate{ID: id})
	}
	return out
}

func ids(items []*core.ScoredRestaurant) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestMoodScoreNode(t *testing.T) {
	s := &stubScorer{scores: map[string]float64{"a": 1, "b": 2, "c": 3}}
	n := &MoodScoreNode{Scorer: s}

	out, err := n.Process(context.Background(), &core.RankContext{Mood: "date"}, items("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(out), "input order is kept")
	assert.InDelta(t, 2.0, out[1].MoodScore.Score, 1e-9)
	assert.Equal(t, core.Mood("date"), out[1].MoodScore.Mood)
}

func TestMoodScoreNode_ExcludesContractViolations(t *testing.T) {
	s := &stubScorer{
		scores: map[string]float64{"a": 1, "c": 3},
		errs:   map[string]error{"b": core.NewContractViolationError(core.ModuleScorer, "bad review")},
	}
	n := &MoodScoreNode{Scorer: s}

	out, err := n.Process(context.Background(), &core.RankContext{Mood: "date"}, items("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(out))
}

func TestMoodScoreNode_ModelUnavailableFailsRequest(t *testing.T) {
	s := &stubScorer{
		errs: map[string]error{
			"b": core.NewContractViolationError(core.ModuleScorer, "bad review"),
			"c": core.NewModelUnavailableError(nil, "oom"),
		},
	}
	n := &MoodScoreNode{Scorer: s, MaxConcurrent: 2}

	out, err := n.Process(context.Background(), &core.RankContext{Mood: "date"}, items("a", "b", "c", "d"))
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, core.IsModelUnavailable(err))
	assert.Len(t, s.calls, 4, "every scoring runs to completion")
}

func TestMoodScoreNode_BoundsConcurrency(t *testing.T) {
	s := &stubScorer{delay: 10 * time.Millisecond}
	n := &MoodScoreNode{Scorer: s, MaxConcurrent: 2}

	_, err := n.Process(context.Background(), &core.RankContext{Mood: "date"}, items("a", "b", "c", "d", "e", "f"))
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&s.maxSeen), int32(2))
}

func TestMoodScoreNode_Empty(t *testing.T) {
	n := &MoodScoreNode{}
	out, err := n.Process(context.Background(), &core.RankContext{Mood: "date"}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
