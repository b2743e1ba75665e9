package discovery

import (
	"context"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/moodkit/core"
)

// earthRadiusMeters 平均地球半径。
const earthRadiusMeters = 6371000.0

// Static 是基于固定候选列表的发现源，用于离线数据（collect 的输出）或测试。
// 按请求位置与半径过滤，并应用与 PlacesClient 相同的请求级过滤条件。
type Static struct {
	Candidates []core.RestaurantCandidate
}

// NewStaticFromFile 从 YAML/JSON 文件加载候选餐厅。
func NewStaticFromFile(path string) (*Static, error) {
	list, err := LoadCandidates(path)
	if err != nil {
		return nil, err
	}
	return &Static{Candidates: list}, nil
}

func (s *Static) Search(_ context.Context, req SearchRequest) ([]core.RestaurantCandidate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	prg, err := compileFilter("", req.Filters)
	if err != nil {
		return nil, err
	}

	out := make([]core.RestaurantCandidate, 0, len(s.Candidates))
	for _, c := range s.Candidates {
		if Distance(req.Lat, req.Lng, c.Location.Lat, c.Location.Lng) > float64(req.Radius) {
			continue
		}
		if req.Filters.OpenNow && (c.OpenNow == nil || !*c.OpenNow) {
			continue
		}
		if prg != nil {
			ok, err := prg.EvalCandidate(&c, nil)
			if err != nil || !ok {
				continue
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// Distance 返回两点间的大圆距离（米，haversine）。
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// candidateFile 是候选餐厅文件的对象形式。
type candidateFile struct {
	Restaurants []core.RestaurantCandidate `yaml:"restaurants"`
}

// LoadCandidates 读取候选餐厅文件。
func LoadCandidates(path string) ([]core.RestaurantCandidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	return ParseCandidates(data)
}

// ParseCandidates 解析候选餐厅：顶层为列表，或带 restaurants 字段的对象。
// JSON 是 YAML 的子集，统一用 yaml.v3 解析。
func ParseCandidates(data []byte) ([]core.RestaurantCandidate, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse candidates: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var list []core.RestaurantCandidate
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("parse candidates: %w", err)
		}
		return list, nil
	case yaml.MappingNode:
		var f candidateFile
		if err := root.Decode(&f); err != nil {
			return nil, fmt.Errorf("parse candidates: %w", err)
		}
		return f.Restaurants, nil
	default:
		return nil, fmt.Errorf("parse candidates: expected a list or an object with restaurants")
	}
}
