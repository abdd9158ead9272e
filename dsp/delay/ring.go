package delay

import "math"

// Ring maps unbounded integer and fractional positions onto the element
// indices [0, Len()) of a circular store.
type Ring struct {
	n int
}

// NewRing returns a ring of n elements. n must be positive.
func NewRing(n int) Ring {
	if n < 1 {
		n = 1
	}
	return Ring{n: n}
}

// Len returns the number of elements.
func (r Ring) Len() int { return r.n }

// Wrap folds i into [0, Len()). Negative values wrap from the end, so -1
// maps to Len()-1.
func (r Ring) Wrap(i int) int {
	if i >= 0 && i < r.n {
		return i
	}
	i %= r.n
	if i < 0 {
		i += r.n
	}
	return i
}

// WrapFloat folds p into [0, Len()).
func (r Ring) WrapFloat(p float64) float64 {
	n := float64(r.n)
	switch {
	case p >= 0 && p < n:
		return p
	case p >= n && p < 2*n:
		p -= n
	case p < 0 && p >= -n:
		p += n
	default:
		p = math.Mod(p, n)
		if p < 0 {
			p += n
		}
	}
	// Rounding can land exactly on n, e.g. -1e-18 + n.
	if p >= n {
		return 0
	}
	return p
}

// Add moves p by delta samples and wraps the result.
func (r Ring) Add(p, delta float64) float64 {
	return r.WrapFloat(p + delta)
}

// Ahead returns the forward distance from position from to position to,
// in [0, Len()).
func (r Ring) Ahead(from, to float64) float64 {
	return r.WrapFloat(to - from)
}

// Behind returns how many samples position p lies behind write, in
// [0, Len()). A result of 0 means p is the slot about to be overwritten.
func (r Ring) Behind(write int, p float64) float64 {
	return r.WrapFloat(float64(write) - p)
}

// Back returns the index n samples behind write.
func (r Ring) Back(write, n int) int {
	return r.Wrap(write - n)
}
