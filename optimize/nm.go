package optimize

import (
	"math"

	gopt "gonum.org/v1/gonum/optimize"
)

// NM is a derivative-free Nelder-Mead optimizer backed by gonum.
type NM struct {
	BaseOptimizer
	// FTol is the absolute function convergence tolerance.
	FTol float64
	// ConvergeIters is the number of iterations the objective must
	// stay within FTol for convergence.
	ConvergeIters int
}

// NewNM creates a new Nelder-Mead optimizer.
func NewNM() (nm *NM) {
	nm = &NM{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
		},
		FTol:          1e-10,
		ConvergeIters: 20,
	}
	return
}

// Run maximizes the likelihood for at most iterations major
// iterations.
func (n *NM) Run(iterations int) error {
	n.maxL = math.Inf(-1)
	n.converged = false
	n.PrintHeader(n.parameters)

	problem := gopt.Problem{
		Func: func(x []float64) float64 {
			if !n.parameters.ValuesInRange(x) {
				return math.Inf(+1)
			}
			n.parameters.SetValues(x)
			l := n.Likelihood()
			n.calls++
			n.saveMax(n.parameters, l)
			n.i++
			if n.repPeriod > 0 && n.i%n.repPeriod == 0 {
				n.PrintLine(n.parameters, l)
			}
			return -l
		},
	}

	settings := &gopt.Settings{
		Converger: &gopt.FunctionConverge{
			Absolute:   n.FTol,
			Iterations: n.ConvergeIters,
		},
	}
	if iterations > 0 {
		settings.MajorIterations = iterations
	}

	result, err := gopt.Minimize(problem, n.parameters.Values(nil), settings, &gopt.NelderMead{})
	if err != nil {
		return err
	}
	if err = result.Status.Err(); err != nil {
		return err
	}

	n.parameters.SetValues(result.X)
	n.l = -result.F
	n.saveMax(n.parameters, n.l)
	n.converged = result.Status != gopt.IterationLimit &&
		result.Status != gopt.FunctionEvaluationLimit &&
		result.Status != gopt.RuntimeLimit &&
		!math.IsInf(n.maxL, 0) && !math.IsNaN(n.maxL)

	log.Infof("Finished Nelder-Mead, status: %v", result.Status)
	log.Noticef("Maximum likelihood: %v", n.maxL)
	log.Infof("Likelihood function calls: %v", n.calls)
	n.PrintFinal(n.parameters)
	return nil
}
