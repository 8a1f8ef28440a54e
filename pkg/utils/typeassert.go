package utils

// SafeAssert performs a type assertion that never panics.
func SafeAssert[T any](value any) (T, bool) {
	v, ok := value.(T)
	return v, ok
}

// GetMapFieldOr returns m[key] as T, or defaultValue when the key is absent
// or holds another type.
func GetMapFieldOr[T any](m map[string]any, key string, defaultValue T) T {
	if m == nil {
		return defaultValue
	}
	if v, ok := SafeAssert[T](m[key]); ok {
		return v
	}
	return defaultValue
}
