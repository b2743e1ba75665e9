// Package conv 提供把松散类型的 JSON 解码结果转换为具体类型的泛型工具。
package conv

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32；单元素数组取第一个元素。
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case []any:
		if len(val) == 1 {
			return ToFloat64(val[0])
		}
		return 0, false
	default:
		return 0, false
	}
}

// ToString 将 any 转为 string，仅支持 string 类型。
func ToString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// ConvertMap 将 map[K]V1 按 convert 转为 map[K]V2。
// 任一条目转换失败时返回 (nil, false)。
func ConvertMap[K comparable, V1, V2 any](m map[K]V1, convert func(V1) (V2, bool)) (map[K]V2, bool) {
	out := make(map[K]V2, len(m))
	for k, v := range m {
		v2, ok := convert(v)
		if !ok {
			return nil, false
		}
		out[k] = v2
	}
	return out, true
}

// MapToFloat64 将 map[string]any 转为 map[string]float64，任一 value 不是数值时失败。
func MapToFloat64(m map[string]any) (map[string]float64, bool) {
	return ConvertMap(m, ToFloat64)
}

// ConvertSlice 将 []T 按 convert 转为 []U，任一元素转换失败时返回 (nil, false)。
func ConvertSlice[T, U any](s []T, convert func(T) (U, bool)) ([]U, bool) {
	out := make([]U, 0, len(s))
	for _, v := range s {
		u, ok := convert(v)
		if !ok {
			return nil, false
		}
		out = append(out, u)
	}
	return out, true
}
