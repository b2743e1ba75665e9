package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/moodkit/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moodkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"celebration", "date", "quick_bite", "budget"}, cfg.Moods)
	assert.Equal(t, 3, cfg.Scoring.MinReviews)
	assert.Equal(t, 0.5, cfg.Scoring.ConfidenceThreshold)
	assert.Equal(t, 3, cfg.Scoring.MinReviewsForRanking)
	assert.True(t, cfg.Scoring.RequireConfident)
	assert.Equal(t, 4, cfg.Scoring.MaxConcurrentScoring)
	assert.Equal(t, 32, cfg.Inference.MaxBatchSize)
	assert.Equal(t, 512, cfg.Inference.MaxInputChars)
	assert.Equal(t, 1, cfg.Inference.MaxConcurrent)
	assert.Equal(t, BackendHugot, cfg.Model.Backend)
	assert.Equal(t, DefaultHFRepo, cfg.Model.Hugot.HFRepo)
	assert.Equal(t, []string{"date", "quick_bite", "budget", "celebration"}, cfg.Model.Hugot.Labels)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, ":8000", cfg.Server.Addr)

	ms, err := cfg.MoodSet()
	require.NoError(t, err)
	assert.Equal(t, 4, ms.Len())
	require.Len(t, cfg.Model.Hugot.Labels, ms.Len())
	for _, l := range cfg.Model.Hugot.Labels {
		assert.True(t, ms.Contains(core.Mood(l)), "default label %q is not an enabled mood", l)
	}

	ec := cfg.Engine()
	assert.Equal(t, cfg.Scoring, ec.Scoring)
	assert.Equal(t, cfg.Inference, ec.Inference)
}

func TestLoadFile_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
moods: [date, budget]
scoring:
  min_reviews: 5
  filter_expr: "candidate.rating >= 4.0"
inference:
  max_batch_size: 8
model:
  backend: keyword
places:
  timeout: 3s
server:
  addr: ":9000"
  request_timeout: 5s
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "budget"}, cfg.Moods)
	assert.Equal(t, 5, cfg.Scoring.MinReviews)
	assert.Equal(t, "candidate.rating >= 4.0", cfg.Scoring.FilterExpr)
	// 未出现在文件中的键保留默认值
	assert.Equal(t, 0.5, cfg.Scoring.ConfidenceThreshold)
	assert.Equal(t, 8, cfg.Inference.MaxBatchSize)
	assert.Equal(t, 512, cfg.Inference.MaxInputChars)
	assert.Equal(t, BackendKeyword, cfg.Model.Backend)
	assert.Equal(t, 3*time.Second, cfg.Places.Timeout)
	assert.Equal(t, 30, cfg.Places.MaxCandidates)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
scoring:
  min_reviews: 5
model:
  backend: keyword
`)
	t.Setenv("MOODKIT_SCORING_MIN_REVIEWS", "7")
	t.Setenv("MOODKIT_SCORING_REQUIRE_CONFIDENT", "false")
	t.Setenv("MOODKIT_INFERENCE_MAX_BATCH_SIZE", "16")
	t.Setenv("MOODKIT_MOODS", "date, budget ,")
	t.Setenv("MOODKIT_SERVER_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MOODKIT_GOOGLE_PLACES_API_KEY", "secret")
	t.Setenv("MOODKIT_UNKNOWN_KEY", "ignored")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Scoring.MinReviews)
	assert.False(t, cfg.Scoring.RequireConfident)
	assert.Equal(t, 16, cfg.Inference.MaxBatchSize)
	assert.Equal(t, []string{"date", "budget"}, cfg.Moods)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "secret", cfg.Places.APIKey)
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown backend", "model:\n  backend: tensorflow\n"},
		{"duplicate moods", "moods: [date, date]\nmodel:\n  backend: keyword\n"},
		{"threshold out of range", "scoring:\n  confidence_threshold: 1.5\nmodel:\n  backend: keyword\n"},
		{"negative batch size", "inference:\n  max_batch_size: -1\nmodel:\n  backend: keyword\n"},
		{"bad store backend", "store:\n  backend: memcached\nmodel:\n  backend: keyword\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFindConfigFile_EnvPath(t *testing.T) {
	path := writeConfig(t, "model:\n  backend: keyword\n")
	t.Setenv(ConfigPathEnvVar, path)
	assert.Equal(t, path, findConfigFile())
}

func TestEnvTransformFunc(t *testing.T) {
	assert.Equal(t, "scoring.min_reviews_for_ranking", envTransformFunc("MOODKIT_SCORING_MIN_REVIEWS_FOR_RANKING"))
	assert.Equal(t, "logging.level", envTransformFunc("MOODKIT_LOG_LEVEL"))
	assert.Equal(t, "", envTransformFunc("MOODKIT_PATH"))
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"http", "hugot", "keyword", "torch_serve"}, SupportedBackends())
	assert.True(t, IsSupportedBackend(BackendKeyword))
	assert.False(t, IsSupportedBackend("onnx"))

	c, err := NewClassifier(context.Background(), ModelConfig{Backend: BackendKeyword})
	require.NoError(t, err)
	assert.Equal(t, "keyword", c.Name())

	_, err = NewClassifier(context.Background(), ModelConfig{Backend: "onnx"})
	assert.Error(t, err)
}

func TestRegistry_ServiceBackend(t *testing.T) {
	cfg := Default().Model
	cfg.Backend = BackendTorchServe
	cfg.Service.Endpoint = "http://localhost:8080"
	cfg.Service.ModelName = "mood"

	c, err := NewClassifier(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, c)

	// torch_serve 需要模型名
	cfg.Service.ModelName = ""
	_, err = NewClassifier(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRegistry_HugotMissingModel(t *testing.T) {
	cfg := ModelConfig{Backend: BackendHugot}
	cfg.Hugot.ModelPath = filepath.Join(t.TempDir(), "missing")

	_, err := NewClassifier(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, core.IsModelUnavailable(err))
}
