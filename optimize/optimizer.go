// Package optimize provides a likelihood maximization framework: an
// Optimizable interface for models exposing a likelihood function over
// named float parameters, and several maximizers (Nelder-Mead,
// downhill simplex, L-BFGS-B, Metropolis-Hastings).
package optimize

import (
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("optimize")

// Optimizable is a model which can be optimized. Copy must return an
// independent model sharing only read-only data, so optimizers may
// evaluate several parameter vectors without interference.
type Optimizable interface {
	GetFloatParameters() FloatParameters
	Copy() Optimizable
	Likelihood() float64
}

// Optimizer is a likelihood maximizer.
type Optimizer interface {
	SetOptimizable(Optimizable)
	SetReportPeriod(period int)
	Run(iterations int) error
	GetL() float64
	GetMaxL() float64
	GetMaxLParameters() []float64
	Converged() bool
}

// BaseOptimizer provides parameter and maximum-likelihood bookkeeping
// shared by all optimizers.
type BaseOptimizer struct {
	Optimizable
	parameters FloatParameters
	i          int
	calls      int
	l          float64
	maxL       float64
	maxLPar    []float64
	converged  bool
	repPeriod  int
	// Quiet disables iteration reporting.
	Quiet bool
}

// SetOptimizable sets the model to optimize.
func (o *BaseOptimizer) SetOptimizable(opt Optimizable) {
	o.Optimizable = opt
	o.parameters = opt.GetFloatParameters()
}

// SetReportPeriod sets the number of iterations between reports.
func (o *BaseOptimizer) SetReportPeriod(period int) {
	o.repPeriod = period
}

// PrintHeader reports parameter names.
func (o *BaseOptimizer) PrintHeader(parameters FloatParameters) {
	if !o.Quiet {
		log.Noticef("iteration\tlikelihood\t%s", parameters.NamesString())
	}
}

// PrintLine reports the current point.
func (o *BaseOptimizer) PrintLine(parameters FloatParameters, l float64) {
	if !o.Quiet {
		log.Infof("%d\t%f\t%s", o.i, l, parameters.ValuesString())
	}
}

// PrintFinal reports the final parameter values.
func (o *BaseOptimizer) PrintFinal(parameters FloatParameters) {
	if !o.Quiet {
		for _, par := range parameters {
			log.Noticef("%s=%v", par.Name(), par.Get())
		}
	}
}

// saveMax updates the running maximum.
func (o *BaseOptimizer) saveMax(parameters FloatParameters, l float64) {
	if l > o.maxL {
		o.maxL = l
		o.maxLPar = parameters.Values(o.maxLPar)
	}
}

// GetL returns the likelihood at the current point.
func (o *BaseOptimizer) GetL() float64 {
	return o.l
}

// GetMaxL returns the maximum likelihood found so far.
func (o *BaseOptimizer) GetMaxL() float64 {
	return o.maxL
}

// GetMaxLParameters returns the parameter values at the maximum.
func (o *BaseOptimizer) GetMaxLParameters() []float64 {
	return o.maxLPar
}

// Converged reports whether the last Run terminated by meeting its
// convergence criterion rather than by exhausting iterations.
func (o *BaseOptimizer) Converged() bool {
	return o.converged
}
