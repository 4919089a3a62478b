package utils

// Ptr returns a pointer to a copy of v, for optional wire fields such as
// temperature that must distinguish "unset" from zero.
func Ptr[T any](v T) *T {
	return &v
}
