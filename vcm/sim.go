package vcm

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mrrlab/lmm/kinship"
)

// SimOptions configures Simulate.
type SimOptions struct {
	// N is the number of observations.
	N int
	// Coef holds the true fixed-effect coefficients; the first
	// covariate is an intercept, the rest are standard normal.
	Coef []float64
	// Lambda holds the kinship eigenvalues, length N, all positive.
	Lambda []float64
	// Sigma2 is the true error variance.
	Sigma2 float64
	// H2 is the true heritability; 0 and 1 are allowed for
	// simulating the degenerate ends.
	H2 float64
	// Seed makes the dataset reproducible.
	Seed uint64
}

// Simulate generates a dataset from the mixed model directly in the
// eigenbasis of the kinship matrix: observation i has variance
// Sigma2*(H2*Lambda[i] + 1-H2) around its fixed-effect mean. Useful
// for recovery tests and power analysis without building an explicit
// kinship matrix.
func Simulate(o SimOptions) (*kinship.Rotation, error) {
	if o.N <= 0 {
		return nil, fmt.Errorf("vcm: non-positive sample size %d", o.N)
	}
	if len(o.Lambda) != o.N {
		return nil, fmt.Errorf("vcm: %d eigenvalues for %d observations", len(o.Lambda), o.N)
	}
	if len(o.Coef) == 0 {
		return nil, fmt.Errorf("vcm: no fixed-effect coefficients")
	}
	if !(o.Sigma2 > 0) {
		return nil, fmt.Errorf("vcm: non-positive sigma2 %v", o.Sigma2)
	}
	if o.H2 < 0 || o.H2 > 1 {
		return nil, fmt.Errorf("vcm: h2=%v outside [0,1]", o.H2)
	}
	for i, l := range o.Lambda {
		if !(l > 0) {
			return nil, fmt.Errorf("vcm: eigenvalue lambda[%d]=%v <= 0", i, l)
		}
	}

	src := rand.NewPCG(o.Seed, o.Seed^0x9e3779b97f4a7c15)
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	p := len(o.Coef)
	x := mat.NewDense(o.N, p, nil)
	y := mat.NewDense(o.N, 1, nil)
	for i := 0; i < o.N; i++ {
		x.Set(i, 0, 1)
		for j := 1; j < p; j++ {
			x.Set(i, j, norm.Rand())
		}
		mean := 0.0
		for j := 0; j < p; j++ {
			mean += x.At(i, j) * o.Coef[j]
		}
		sd := math.Sqrt(o.Sigma2 * (o.H2*o.Lambda[i] + (1 - o.H2)))
		y.Set(i, 0, mean+sd*norm.Rand())
	}

	return &kinship.Rotation{
		Y:      y,
		X:      x,
		Lambda: append([]float64(nil), o.Lambda...),
	}, nil
}
