// Package collection has the small generic slice helpers the stores and
// commands share.
//
//	emails := collection.Map(carts, func(c models.Cart) string { return c.UserEmail })
//	live := collection.Filter(details, func(d models.CartDetail) bool { return d.Amount > 0 })
package collection

// Map transforms each element of s using fn.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// Filter returns the elements of s for which keep is true. The result is
// never nil.
func Filter[T any](s []T, keep func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// IndexOf returns the index of the first element matching fn, or -1.
func IndexOf[T any](s []T, fn func(T) bool) int {
	for i, v := range s {
		if fn(v) {
			return i
		}
	}
	return -1
}

// Sum adds up the values fn extracts.
func Sum[T any, N int | float64](s []T, fn func(T) N) N {
	var total N
	for _, v := range s {
		total += fn(v)
	}
	return total
}

// KeyBy indexes s by the key fn produces. On duplicate keys the last
// element wins.
func KeyBy[T any, K comparable](s []T, fn func(T) K) map[K]T {
	out := make(map[K]T, len(s))
	for _, v := range s {
		out[fn(v)] = v
	}
	return out
}
