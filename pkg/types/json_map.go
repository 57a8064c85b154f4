package types

// JSONMap stores opaque provider payloads as jsonb via GORM's json serializer.
type JSONMap map[string]any

// Merge returns a copy of m with other's keys layered on top. Neither input
// is mutated; nil inputs are fine.
func (m JSONMap) Merge(other JSONMap) JSONMap {
	if len(m) == 0 && len(other) == 0 {
		return nil
	}
	merged := make(JSONMap, len(m)+len(other))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
