package knowledge

import "math"

// CosineSim returns dot(a,b)/(|a||b|). A zero denominator is treated as 1
// so empty or zero vectors score their raw dot product. Extra trailing
// components of the longer vector are ignored.
func CosineSim(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		denom = 1
	}
	return dot / denom
}
