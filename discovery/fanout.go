package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/logging"
	"github.com/rushteam/moodkit/metrics"
)

// Source 是 Fanout 中带名字的发现源。
type Source struct {
	Name    string
	Service Service
}

// Fanout 并发查询多个发现源并合并结果。
//
//   - 按 place_id 去重，相同餐厅保留 Sources 中靠前的来源
//   - 单个来源失败或超时只记录日志；所有来源都失败时返回第一个来源的错误
//   - 参数错误（INVALID_INPUT）与来源无关，直接返回
type Fanout struct {
	Sources       []Source
	Timeout       time.Duration // 每个来源的超时（0 表示不限制）
	MaxConcurrent int           // 最大并发数（0 表示不限制）
	Logger        zerolog.Logger
}

// NewFanout 创建 Fanout。
func NewFanout(timeout time.Duration, sources ...Source) *Fanout {
	return &Fanout{
		Sources: sources,
		Timeout: timeout,
		Logger:  logging.Component("discovery"),
	}
}

func (f *Fanout) Search(ctx context.Context, req SearchRequest) ([]core.RestaurantCandidate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if len(f.Sources) == 0 {
		return nil, nil
	}

	results := make([][]core.RestaurantCandidate, len(f.Sources))
	errs := make([]error, len(f.Sources))

	var eg errgroup.Group
	if f.MaxConcurrent > 0 {
		eg.SetLimit(f.MaxConcurrent)
	}
	for i, src := range f.Sources {
		eg.Go(func() error {
			sctx := ctx
			if f.Timeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(ctx, f.Timeout)
				defer cancel()
			}
			results[i], errs[i] = src.Service.Search(sctx, req)
			return nil
		})
	}
	_ = eg.Wait()

	failed := 0
	for i, err := range errs {
		if err == nil {
			metrics.DiscoveryRequests.WithLabelValues("fanout:"+f.Sources[i].Name, "ok").Inc()
			continue
		}
		if core.IsInvalidInput(err) {
			return nil, err
		}
		failed++
		metrics.DiscoveryRequests.WithLabelValues("fanout:"+f.Sources[i].Name, "error").Inc()
		f.Logger.Warn().Err(err).Str("source", f.Sources[i].Name).Msg("discovery source failed")
	}
	if failed == len(f.Sources) {
		return nil, fmt.Errorf("all discovery sources failed: %s: %w", f.Sources[0].Name, errs[0])
	}

	return mergeByPriority(results), nil
}

// mergeByPriority 按来源顺序合并，同一 place_id 只保留第一次出现的候选。
func mergeByPriority(results [][]core.RestaurantCandidate) []core.RestaurantCandidate {
	seen := make(map[string]struct{})
	var out []core.RestaurantCandidate
	for _, list := range results {
		for _, c := range list {
			if _, ok := seen[c.ID]; ok {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
