// Package discovery 负责从地点服务获取附近的候选餐厅及其评论。
//
// 这是排序引擎之外的协作方：所有网络 I/O 都在这里完成，引擎只接收组装好的候选餐厅。
package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/rushteam/moodkit/core"
	"github.com/rushteam/moodkit/pkg/dsl"
)

// DefaultRadius 是默认搜索半径（米）。
const DefaultRadius = 3000

// MaxRadius 是 Places API 允许的最大半径（米）。
const MaxRadius = 50000

// Filters 是搜索时的附加条件。
type Filters struct {
	// OpenNow 只返回营业中的餐厅（透传给地点服务）
	OpenNow bool `json:"open_now,omitempty"`

	// MinRating 最低评分（0 表示不限制）
	MinRating float64 `json:"min_rating,omitempty" validate:"gte=0,lte=5"`

	// MaxPriceLevel 最高价格等级 0-4（nil 表示不限制；没有价格信息的餐厅保留）
	MaxPriceLevel *int `json:"max_price_level,omitempty" validate:"omitempty,gte=0,lte=4"`

	// Expr 额外的 CEL 过滤表达式
	Expr string `json:"expr,omitempty"`
}

// SearchRequest 是一次地点搜索。
type SearchRequest struct {
	Lat     float64
	Lng     float64
	Radius  int
	Filters Filters
}

// Validate 校验并补全默认值。
func (r *SearchRequest) Validate() error {
	if r.Lat < -90 || r.Lat > 90 {
		return core.NewInvalidInputError(core.ModuleDiscovery, "latitude %v out of range", r.Lat)
	}
	if r.Lng < -180 || r.Lng > 180 {
		return core.NewInvalidInputError(core.ModuleDiscovery, "longitude %v out of range", r.Lng)
	}
	if r.Radius == 0 {
		r.Radius = DefaultRadius
	}
	if r.Radius < 0 || r.Radius > MaxRadius {
		return core.NewInvalidInputError(core.ModuleDiscovery, "radius %d out of range (0, %d]", r.Radius, MaxRadius)
	}
	return nil
}

// Service 是地点发现服务。
type Service interface {
	Search(ctx context.Context, req SearchRequest) ([]core.RestaurantCandidate, error)
}

// buildFilter 把基础表达式与请求级过滤条件组合成一个 CEL 表达式。
func buildFilter(base string, f Filters) string {
	var parts []string
	if base != "" {
		parts = append(parts, "("+base+")")
	}
	if f.MinRating > 0 {
		parts = append(parts, fmt.Sprintf("candidate.rating >= %g", f.MinRating))
	}
	if f.MaxPriceLevel != nil {
		parts = append(parts, fmt.Sprintf("(!has(candidate.price_level) || candidate.price_level <= %d)", *f.MaxPriceLevel))
	}
	if f.Expr != "" {
		parts = append(parts, "("+f.Expr+")")
	}
	return strings.Join(parts, " && ")
}

// compileFilter 编译过滤表达式；空表达式返回 nil（不过滤）。
func compileFilter(base string, f Filters) (*dsl.Program, error) {
	expr := buildFilter(base, f)
	if expr == "" {
		return nil, nil
	}
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, core.NewInvalidInputError(core.ModuleDiscovery, "invalid filter: %v", err)
	}
	return p, nil
}
