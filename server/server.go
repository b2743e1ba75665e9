// Package server 是 moodkit 的 HTTP 接口，基于 chi。
//
//	GET  /         服务信息
//	GET  /health   健康检查（模型未就绪时返回 503）
//	GET  /moods    启用的 mood
//	POST /recommend 附近餐厅按 mood 排序
//	POST /score    单个餐厅的 mood 得分
//	GET  /metrics  prometheus
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/moodkit/config"
	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/logging"
	"github.com/rushteam/moodkit/recommend"
)

// ServiceName 出现在 GET / 的响应中。
const ServiceName = "Mood-Based Restaurant Recommender API"

// Engine 是 HTTP 层依赖的排序引擎能力，由 engine.Engine 实现。
type Engine interface {
	Score(ctx context.Context, candidate core.RestaurantCandidate, mood core.Mood) (*core.ScoredRestaurant, error)
	Moods() *core.MoodSet
	ModelName() string
	Ready(ctx context.Context) error
}

// Recommender 由 recommend.Recommender 实现。
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
}

// Option 配置 Server。
type Option func(*Server)

// WithLogger 指定 logger（默认 logging.Component("server")）。
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion 设置 GET / 返回的版本号。
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// Server 持有路由与依赖，本身无可变状态。
type Server struct {
	cfg         config.ServerConfig
	engine      Engine
	recommender Recommender
	logger      zerolog.Logger
	version     string
	handler     http.Handler
}

// New 创建 Server。recommender 为 nil 时 /recommend 返回 503（例如未配置地点服务）。
func New(cfg config.ServerConfig, eng Engine, rec Recommender, opts ...Option) *Server {
	s := &Server{
		cfg:         cfg,
		engine:      eng,
		recommender: rec,
		logger:      logging.Component("server"),
		version:     "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

// Handler 返回完整的 HTTP handler。
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         86400,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/moods", s.handleMoods)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
		}
		if s.cfg.RateLimitRequests > 0 {
			window := s.cfg.RateLimitWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.LimitByIP(s.cfg.RateLimitRequests, window))
		}
		r.Post("/recommend", s.handleRecommend)
		r.Post("/score", s.handleScore)
	})

	return r
}

// Run 监听 cfg.Addr，ctx 取消后优雅关闭。
func (s *Server) Run(ctx context.Context) error {
	hs := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Dur("timeout", timeout).Msg("shutting down http server")
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
