package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/logging"
	"github.com/rushteam/moodkit/metrics"
	"github.com/rushteam/moodkit/pkg/breaker"
	"github.com/rushteam/moodkit/pkg/dsl"
)

// DefaultCandidateFilter 与线上一致：评分高于 3.9 且评分人数超过 10。
const DefaultCandidateFilter = `candidate.rating > 3.9 && candidate.rating_count > 10`

// PlacesConfig 是 Google Places 客户端配置。
type PlacesConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit 每秒请求数，Burst 突发请求数
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	Burst     int     `koanf:"burst" validate:"gte=0"`

	// MaxCandidates 单次搜索最多返回的餐厅数
	MaxCandidates int `koanf:"max_candidates" validate:"gte=0"`

	// Pages 附近搜索最多翻页数（每页 20 条），PageDelay 为翻页前的等待时间
	Pages     int           `koanf:"pages" validate:"gte=0,lte=3"`
	PageDelay time.Duration `koanf:"page_delay"`

	// MinReviewChars 评论文本长度必须超过该值才会保留
	MinReviewChars int `koanf:"min_review_chars" validate:"gte=0"`

	// MaxConcurrentDetails 同时请求详情的餐厅数
	MaxConcurrentDetails int `koanf:"max_concurrent_details" validate:"gte=0"`

	// CandidateFilter 候选餐厅的基础 CEL 过滤表达式
	CandidateFilter string `koanf:"candidate_filter"`

	Breaker breaker.Config `koanf:"breaker"`
}

// DefaultPlacesConfig 返回默认配置。
func DefaultPlacesConfig() PlacesConfig {
	return PlacesConfig{
		BaseURL:              "https://maps.googleapis.com/maps/api/place",
		Timeout:              10 * time.Second,
		RateLimit:            10,
		Burst:                5,
		MaxCandidates:        30,
		Pages:                1,
		PageDelay:            2 * time.Second,
		MinReviewChars:       20,
		MaxConcurrentDetails: 5,
		CandidateFilter:      DefaultCandidateFilter,
		Breaker:              breaker.DefaultConfig(),
	}
}

// PlacesClient 通过 Google Places API（nearby search + place details）实现 Service。
//
//   - 所有请求经过限流器与熔断器
//   - 附近搜索失败则整个搜索失败；单个餐厅的详情失败只会让该餐厅没有评论
//     （随后被排序引擎以证据不足剔除），不影响其他餐厅
type PlacesClient struct {
	cfg     PlacesConfig
	http    *http.Client
	limiter *rate.Limiter
	breaker *breaker.Breaker[[]byte]
	filter  *dsl.Program
	logger  zerolog.Logger
}

// NewPlacesClient 创建 PlacesClient。cfg 中的零值使用默认配置。
func NewPlacesClient(cfg PlacesConfig) (*PlacesClient, error) {
	def := DefaultPlacesConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = def.MaxCandidates
	}
	if cfg.Pages <= 0 {
		cfg.Pages = def.Pages
	}
	if cfg.MaxConcurrentDetails <= 0 {
		cfg.MaxConcurrentDetails = def.MaxConcurrentDetails
	}

	filter, err := compileFilter(cfg.CandidateFilter, Filters{})
	if err != nil {
		return nil, err
	}
	return &PlacesClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		breaker: breaker.New[[]byte]("google-places", cfg.Breaker),
		filter:  filter,
		logger:  logging.Component("discovery"),
	}, nil
}

// Search 搜索附近的餐厅并拉取评论。
func (c *PlacesClient) Search(ctx context.Context, req SearchRequest) ([]core.RestaurantCandidate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	filter := c.filter
	if req.Filters != (Filters{}) {
		var err error
		if filter, err = compileFilter(c.cfg.CandidateFilter, req.Filters); err != nil {
			return nil, err
		}
	}

	places, err := c.nearby(ctx, req)
	if err != nil {
		return nil, err
	}

	candidates := make([]core.RestaurantCandidate, 0, len(places))
	for _, p := range places {
		cand := p.candidate()
		if filter != nil {
			keep, err := filter.EvalCandidate(&cand, nil)
			if err != nil {
				c.logger.Warn().Str("place_id", cand.ID).Err(err).Msg("candidate filter failed")
				continue
			}
			if !keep {
				continue
			}
		}
		candidates = append(candidates, cand)
		if len(candidates) == c.cfg.MaxCandidates {
			break
		}
	}

	var eg errgroup.Group
	eg.SetLimit(c.cfg.MaxConcurrentDetails)
	for i := range candidates {
		eg.Go(func() error {
			reviews, err := c.reviews(ctx, candidates[i].ID)
			if err != nil {
				c.logger.Warn().Str("place_id", candidates[i].ID).Err(err).Msg("fetch reviews failed")
				return nil
			}
			candidates[i].Reviews = reviews
			return nil
		})
	}
	_ = eg.Wait()

	c.logger.Debug().
		Float64("lat", req.Lat).
		Float64("lng", req.Lng).
		Int("radius", req.Radius).
		Int("places", len(places)).
		Int("candidates", len(candidates)).
		Msg("search done")
	return candidates, nil
}

type placesStatus struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

func (s placesStatus) err() error {
	switch s.Status {
	case "OK", "ZERO_RESULTS":
		return nil
	default:
		return fmt.Errorf("places status %s: %s", s.Status, s.ErrorMessage)
	}
}

type place struct {
	PlaceID          string  `json:"place_id"`
	Name             string  `json:"name"`
	Vicinity         string  `json:"vicinity"`
	FormattedAddress string  `json:"formatted_address"`
	Rating           float64 `json:"rating"`
	UserRatingsTotal int     `json:"user_ratings_total"`
	PriceLevel       *int    `json:"price_level"`
	Geometry         struct {
		Location core.Location `json:"location"`
	} `json:"geometry"`
	OpeningHours *struct {
		OpenNow *bool `json:"open_now"`
	} `json:"opening_hours"`
	Types []string `json:"types"`
}

func (p place) candidate() core.RestaurantCandidate {
	addr := p.Vicinity
	if addr == "" {
		addr = p.FormattedAddress
	}
	c := core.RestaurantCandidate{
		ID:          p.PlaceID,
		Name:        p.Name,
		Address:     addr,
		Location:    p.Geometry.Location,
		Rating:      p.Rating,
		RatingCount: p.UserRatingsTotal,
		PriceLevel:  p.PriceLevel,
		Types:       p.Types,
	}
	if p.OpeningHours != nil {
		c.OpenNow = p.OpeningHours.OpenNow
	}
	return c
}

type nearbyResponse struct {
	placesStatus
	Results       []place `json:"results"`
	NextPageToken string  `json:"next_page_token"`
}

func (c *PlacesClient) nearby(ctx context.Context, req SearchRequest) ([]place, error) {
	params := url.Values{}
	params.Set("location", strconv.FormatFloat(req.Lat, 'f', -1, 64)+","+strconv.FormatFloat(req.Lng, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(req.Radius))
	params.Set("type", "restaurant")
	if req.Filters.OpenNow {
		params.Set("opennow", "true")
	}

	var all []place
	for page := 0; page < c.cfg.Pages; page++ {
		var resp nearbyResponse
		if err := c.get(ctx, "nearbysearch", params, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Results...)
		if resp.NextPageToken == "" {
			break
		}
		if page+1 < c.cfg.Pages {
			// 新的 page token 需要等待一段时间才生效
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.PageDelay):
			}
			params = url.Values{"pagetoken": {resp.NextPageToken}}
		}
	}
	return all, nil
}

type detailsResponse struct {
	placesStatus
	Result struct {
		Reviews []struct {
			Text       string  `json:"text"`
			Rating     float64 `json:"rating"`
			Time       int64   `json:"time"`
			AuthorName string  `json:"author_name"`
		} `json:"reviews"`
	} `json:"result"`
}

func (c *PlacesClient) reviews(ctx context.Context, placeID string) ([]core.Review, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "reviews")

	var resp detailsResponse
	if err := c.get(ctx, "details", params, &resp); err != nil {
		return nil, err
	}

	out := make([]core.Review, 0, len(resp.Result.Reviews))
	for _, r := range resp.Result.Reviews {
		if utf8.RuneCountInString(r.Text) <= c.cfg.MinReviewChars {
			continue
		}
		review := core.Review{Text: r.Text, Author: r.AuthorName}
		if r.Rating > 0 {
			rating := r.Rating
			review.Rating = &rating
		}
		if r.Time > 0 {
			ts := time.Unix(r.Time, 0).UTC()
			review.Time = &ts
		}
		out = append(out, review)
	}
	return out, nil
}

// get 调用 {BaseURL}/{endpoint}/json 并解码响应。
func (c *PlacesClient) get(ctx context.Context, endpoint string, params url.Values, out interface{ err() error }) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	params.Set("key", c.cfg.APIKey)
	u := c.cfg.BaseURL + "/" + endpoint + "/json?" + params.Encode()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("places %s: status %d", endpoint, resp.StatusCode)
		}
		var raw gojson.RawMessage
		if err := gojson.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("places %s: decode: %w", endpoint, err)
		}
		return raw, nil
	})
	if err != nil {
		metrics.DiscoveryRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("places %s: %w", endpoint, err)
	}
	if err := gojson.Unmarshal(body, out); err != nil {
		metrics.DiscoveryRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("places %s: decode: %w", endpoint, err)
	}
	if err := out.err(); err != nil {
		metrics.DiscoveryRequests.WithLabelValues(endpoint, "error").Inc()
		return err
	}
	metrics.DiscoveryRequests.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

var _ Service = (*PlacesClient)(nil)
