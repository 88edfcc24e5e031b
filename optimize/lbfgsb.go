package optimize

import (
	"math"

	lbfgsb "github.com/idavydov/go-lbfgsb"
)

// LBFGSB is a bounded quasi-Newton optimizer using the L-BFGS-B
// Fortran implementation. Gradients are computed by central
// differences on copies of the model.
type LBFGSB struct {
	BaseOptimizer
	dH   float64
	grad []float64
	// lastStatus is the exit status of the last Run.
	lastStatus lbfgsb.ExitStatus
}

// NewLBFGSB creates a new L-BFGS-B optimizer.
func NewLBFGSB() (l *LBFGSB) {
	l = &LBFGSB{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
		},
		dH: 1e-6,
	}
	return
}

// Logger reports iteration progress to the package logger.
func (l *LBFGSB) Logger(info *lbfgsb.OptimizationIterationInformation) {
	l.i = info.Iteration
	l.parameters.SetValues(info.X)
	if l.repPeriod > 0 && l.i%l.repPeriod == 0 {
		l.PrintLine(l.parameters, -info.F)
	}
}

// EvaluateFunction computes the negative likelihood at x.
func (l *LBFGSB) EvaluateFunction(x []float64) float64 {
	if !l.parameters.ValuesInRange(x) {
		return math.Inf(+1)
	}

	l.parameters.SetValues(x)

	L := l.Likelihood()
	l.calls++
	l.saveMax(l.parameters, L)
	return -L
}

// EvaluateGradient computes the central-difference gradient of the
// negative likelihood at x.
func (l *LBFGSB) EvaluateGradient(x []float64) (grad []float64) {
	if l.grad == nil {
		l.grad = make([]float64, len(x))
	}
	grad = l.grad
	for i := range x {
		no1 := l.Optimizable.Copy()
		par1 := no1.GetFloatParameters()
		par1.SetValues(x)
		par1[i].Set(x[i] - l.dH)
		l1 := -no1.Likelihood()
		l.calls++

		no2 := no1.Copy()
		par2 := no2.GetFloatParameters()
		par2[i].Set(x[i] + l.dH)
		l2 := -no2.Likelihood()
		l.calls++

		grad[i] = (l2 - l1) / 2 / l.dH
	}
	return
}

// Run maximizes the likelihood. The iterations argument is accepted
// for interface compatibility; L-BFGS-B terminates on its own
// tolerances.
func (l *LBFGSB) Run(iterations int) error {
	l.maxL = math.Inf(-1)
	l.converged = false
	l.PrintHeader(l.parameters)
	bounds := make([][2]float64, len(l.parameters))

	for i, par := range l.parameters {
		bounds[i][0] = par.GetMin()
		bounds[i][1] = par.GetMax()
		if !math.IsInf(bounds[i][0], 0) {
			bounds[i][0] += 1e-5
		}
		if !math.IsInf(bounds[i][1], 0) {
			bounds[i][1] -= 1e-5
		}
	}

	opt := new(lbfgsb.Lbfgsb)
	opt.SetApproximationSize(10)
	opt.SetFTolerance(1e-9)
	opt.SetGTolerance(1e-9)

	opt.SetBounds(bounds)
	opt.SetLogger(l.Logger)

	minimum, exitStatus := opt.Minimize(l, l.parameters.Values(nil))
	l.lastStatus = exitStatus

	log.Infof("Exit status: %v", exitStatus)

	l.parameters.SetValues(minimum.X)
	l.l = -minimum.F
	l.saveMax(l.parameters, l.l)
	l.converged = (exitStatus.Code == lbfgsb.SUCCESS || exitStatus.Code == lbfgsb.APPROXIMATE) &&
		!math.IsInf(l.maxL, 0) && !math.IsNaN(l.maxL)

	log.Info("Finished LBFGSB")
	log.Noticef("Maximum likelihood: %v", l.maxL)
	log.Infof("Likelihood function calls: %v", l.calls)
	l.PrintFinal(l.parameters)
	return nil
}
