package vcm

import (
	"fmt"
	"math"

	"github.com/mrrlab/lmm/kinship"
	"github.com/mrrlab/lmm/wls"
)

// Weights computes the per-observation variance weights
// h2*lambda[i] + (1-h2), reusing dst if provided. All weights are
// positive whenever h2 is in (0,1) and the eigenvalues are positive.
func Weights(lambda []float64, h2 float64, dst []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(lambda))
	}
	for i, l := range lambda {
		dst[i] = h2*l + (1 - h2)
	}
	return dst
}

// LogLik returns the profile log-likelihood of the first trait at the
// given parameters; see LogLikTrait.
func LogLik(logSigma2, h2 float64, rot *kinship.Rotation) (float64, error) {
	return LogLikTrait(logSigma2, h2, rot, 0)
}

// LogLikTrait returns the profile log-likelihood of trait column j at
// error variance exp(logSigma2) and heritability h2 in (0,1). The
// fixed-effect coefficients are concentrated out by a weighted
// least-squares fit at every call; only the rotation is precomputed.
// The additive -n/2*log(2*pi) constant is omitted, so values are
// comparable between models only at equal n.
func LogLikTrait(logSigma2, h2 float64, rot *kinship.Rotation, j int) (float64, error) {
	if !(h2 > 0 && h2 < 1) {
		return 0, fmt.Errorf("vcm: h2=%v outside (0,1)", h2)
	}
	n := rot.NObs()
	w := Weights(rot.Lambda, h2, nil)

	fit, err := wls.Solve(rot.Trait(j), rot.X, w, false, true)
	if err != nil {
		return 0, err
	}

	sigma2 := math.Exp(logSigma2)
	rssw := 0.0
	sumLogW := 0.0
	for i := 0; i < n; i++ {
		ri := fit.Resid.AtVec(i)
		rssw += ri * ri / w[i]
		sumLogW += math.Log(w[i])
	}

	return -0.5 * (rssw/sigma2 + sumLogW + float64(n)*logSigma2), nil
}
