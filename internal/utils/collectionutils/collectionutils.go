package collectionutils

// GetOrDefault looks key up in m, falling back to defaultValue when absent.
func GetOrDefault[K comparable, T any](m map[K]T, key K, defaultValue T) T {
	v, ok := m[key]
	if !ok {
		return defaultValue
	}
	return v
}
