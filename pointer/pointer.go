package pointer

func FromAny[T any](v T) *T {
	return &v
}

// Deref returns the value p points to, or fallback for a nil pointer
func Deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

func ToString(p *string) string {
	return Deref(p, "")
}
