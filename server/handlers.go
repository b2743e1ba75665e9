package server

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/discovery"
	"github.com/rushteam/moodkit/pkg/validate"
	"github.com/rushteam/moodkit/recommend"
)

// maxBodyBytes 限制请求体大小（/score 携带完整评论）。
const maxBodyBytes = 1 << 20

// RecommendRequest 是 POST /recommend 的请求体。
type RecommendRequest struct {
	Latitude   *float64          `json:"latitude" validate:"required,latitude"`
	Longitude  *float64          `json:"longitude" validate:"required,longitude"`
	Mood       string            `json:"mood" validate:"required"`
	Radius     int               `json:"radius" validate:"gte=0,lte=50000"`
	MaxResults int               `json:"max_results" validate:"gte=0,lte=60"`
	Filters    discovery.Filters `json:"filters"`
}

// ScoreRequest 是 POST /score 的请求体。
type ScoreRequest struct {
	Mood       string                   `json:"mood" validate:"required"`
	Restaurant core.RestaurantCandidate `json:"restaurant"`
}

// RecommendResponse 是 POST /recommend 的响应。
type RecommendResponse struct {
	*core.RankResult
	Cached bool `json:"cached"`
}

// ErrorResponse 是所有错误的响应体。
type ErrorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
	Module string `json:"module,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      ServiceName,
		"status":       "healthy",
		"version":      s.version,
		"model":        s.engine.ModelName(),
		"model_loaded": s.engine.Ready(r.Context()) == nil,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Ready(r.Context()); err != nil {
		s.logger.Warn().Err(err).Msg("model not ready")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":       "unhealthy",
			"model_loaded": false,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"model_loaded": true,
	})
}

func (s *Server) handleMoods(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"moods": s.engine.Moods().Strings()})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	if s.recommender == nil {
		s.writeError(w, r, core.NewDomainError(core.ModuleDiscovery, core.ErrorCodeUnavailable, "place discovery is not configured"))
		return
	}
	var req RecommendRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.recommender.Recommend(r.Context(), recommend.Request{
		Lat:        *req.Latitude,
		Lng:        *req.Longitude,
		Mood:       core.Mood(req.Mood),
		Radius:     req.Radius,
		MaxResults: req.MaxResults,
		Filters:    req.Filters,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecommendResponse{RankResult: resp.RankResult, Cached: resp.Cached})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if !s.decode(w, r, &req) {
		return
	}
	sr, err := s.engine.Score(r.Context(), req.Restaurant, core.Mood(req.Mood))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sr)
}

// decode 解析并校验请求体；失败时已写入 400 响应。
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "INVALID_INPUT", Detail: "invalid request body: " + err.Error()})
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "INVALID_INPUT", Detail: err.Error()})
		return false
	}
	return true
}

// writeError 把领域错误映射为 HTTP 状态码：INVALID_INPUT→400，UNAVAILABLE→503，其余→500。
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{Code: "INTERNAL", Detail: err.Error()}
	if de := core.GetDomainError(err); de != nil {
		body.Code = de.Code
		body.Module = de.Module
		switch de.Code {
		case core.ErrorCodeInvalidInput:
			status = http.StatusBadRequest
		case core.ErrorCodeUnavailable:
			status = http.StatusServiceUnavailable
		}
	}
	if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		status = http.StatusGatewayTimeout
		body.Code = "TIMEOUT"
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
