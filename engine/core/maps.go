package core

import "maps"

// CloneMap returns a shallow copy of m, or nil when m is nil.
func CloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// CopyMaps merges the given maps into a new map. Later maps win.
func CopyMaps[K comparable, V any](sources ...map[K]V) map[K]V {
	size := 0
	for _, m := range sources {
		size += len(m)
	}
	out := make(map[K]V, size)
	for _, m := range sources {
		maps.Copy(out, m)
	}
	return out
}
