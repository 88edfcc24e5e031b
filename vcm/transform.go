package vcm

import (
	"math"
)

// Logit maps p in (0,1) to the real line.
func Logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// Invlogit is the inverse of Logit. The two-branch form avoids
// overflow of exp for large |x|.
func Invlogit(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
