package vcm

import (
	"errors"
	"fmt"
	"math"

	"github.com/mrrlab/lmm/kinship"
	"github.com/mrrlab/lmm/optimize"
	"github.com/mrrlab/lmm/wls"
)

// ErrNonConvergence is returned when the optimizer fails to find a
// stable optimum. No retry is attempted; alternate starting points are
// the caller's policy.
var ErrNonConvergence = errors.New("vcm: optimizer failed to converge")

// defaultIterations bounds the optimizer run in Estimate.
const defaultIterations = 1000

// Result holds estimated variance components for one trait.
type Result struct {
	// Sigma2 is the error variance estimate.
	Sigma2 float64
	// H2 is the heritability estimate in (0,1).
	H2 float64
	// LogL is the maximized log-likelihood (2*pi constant omitted).
	LogL float64
	// Coef holds the fixed-effect coefficients at the optimum.
	Coef []float64
}

// Estimate maximizes the profile log-likelihood of the first trait
// starting from the given unconstrained values, using Nelder-Mead.
func Estimate(rot *kinship.Rotation, logSigma2Init, logitH2Init float64) (*Result, error) {
	return EstimateWith(optimize.NewNM(), rot, logSigma2Init, logitH2Init)
}

// EstimateWith maximizes the profile log-likelihood with the given
// optimizer. Optimizer failure or a non-finite optimum is reported as
// ErrNonConvergence.
func EstimateWith(opt optimize.Optimizer, rot *kinship.Rotation, logSigma2Init, logitH2Init float64) (*Result, error) {
	return EstimateWithIterations(opt, rot, logSigma2Init, logitH2Init, defaultIterations)
}

// EstimateWithIterations is EstimateWith with an explicit iteration
// budget, for optimizers (like annealing MH) whose schedule depends on
// the budget.
func EstimateWithIterations(opt optimize.Optimizer, rot *kinship.Rotation, logSigma2Init, logitH2Init float64, iterations int) (*Result, error) {
	m := NewVarianceModel(rot)
	m.SetParameters(logSigma2Init, logitH2Init)
	opt.SetOptimizable(m)

	if err := opt.Run(iterations); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNonConvergence, err)
	}
	if !opt.Converged() {
		return nil, fmt.Errorf("%w: no stable optimum within %d iterations", ErrNonConvergence, iterations)
	}
	maxL := opt.GetMaxL()
	if math.IsInf(maxL, 0) || math.IsNaN(maxL) {
		return nil, fmt.Errorf("%w: non-finite likelihood %v", ErrNonConvergence, maxL)
	}

	x := opt.GetMaxLParameters()
	sigma2 := math.Exp(x[0])
	h2 := Invlogit(x[1])

	// Fixed-effect coefficients at the optimum.
	fit, err := wls.Solve(rot.Trait(m.trait), rot.X, Weights(rot.Lambda, h2, nil), false, false)
	if err != nil {
		return nil, err
	}
	coef := make([]float64, fit.Coef.Len())
	for i := range coef {
		coef[i] = fit.Coef.AtVec(i)
	}

	log.Noticef("sigma2=%v h2=%v logL=%v", sigma2, h2, maxL)
	return &Result{
		Sigma2: sigma2,
		H2:     h2,
		LogL:   maxL,
		Coef:   coef,
	}, nil
}
