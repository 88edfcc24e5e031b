package optimize

import (
	"math"
	"math/rand/v2"
)

// MH is a Metropolis-Hastings sampler. With annealing enabled it acts
// as a simulated annealing maximizer; otherwise it samples from the
// posterior given the parameters' priors and reports the best point
// visited.
type MH struct {
	BaseOptimizer
	// AccPeriod is the number of iterations between acceptance-rate
	// reports.
	AccPeriod     int
	annealing     bool
	annealingSkip int
}

// NewMH creates a new MH sampler. With annealing the temperature
// schedule starts after annealingSkip iterations.
func NewMH(annealing bool, annealingSkip int) (mh *MH) {
	mh = &MH{
		BaseOptimizer: BaseOptimizer{
			repPeriod: 10,
		},
		AccPeriod:     10,
		annealing:     annealing,
		annealingSkip: annealingSkip,
	}
	return
}

// Run samples for the given number of iterations.
func (m *MH) Run(iterations int) error {
	m.PrintHeader(m.parameters)
	m.maxL = math.Inf(-1)
	m.converged = false
	accepted := 0
	l := m.Likelihood()
	m.calls++
	m.saveMax(m.parameters, l)

	for m.i = 0; m.i < iterations; m.i++ {
		T := 1.0
		if m.annealing && m.i >= m.annealingSkip && iterations > m.annealingSkip {
			T = math.Pow(0.9, float64(m.i-m.annealingSkip)/float64(iterations-m.annealingSkip)*100)
		}
		if m.i > 0 && m.AccPeriod > 0 && m.i%m.AccPeriod == 0 {
			log.Debugf("Acceptance rate %.2f%%", 100*float64(accepted)/float64(m.AccPeriod))
			accepted = 0
		}
		if m.repPeriod > 0 && m.i%m.repPeriod == 0 {
			if m.annealing {
				log.Debugf("%d: L=%f, T=%f", m.i, l, T)
			} else {
				log.Debugf("%d: L=%f", m.i, l)
			}
			m.PrintLine(m.parameters, l)
		}

		p := rand.IntN(len(m.parameters))
		par := m.parameters[p]
		par.Propose()
		newL := m.Likelihood()
		m.calls++

		var a float64
		if m.annealing {
			a = math.Exp((newL - l) / T)
		} else {
			a = math.Exp(par.Prior() - par.OldPrior() + newL - l)
		}

		if a > 1 || rand.Float64() < a {
			l = newL
			par.Accept(m.i)
			accepted++
			m.saveMax(m.parameters, l)
		} else {
			par.Reject()
		}
	}

	m.l = l
	m.converged = !math.IsInf(m.maxL, 0) && !math.IsNaN(m.maxL)
	log.Info("Finished MH")
	log.Noticef("Maximum likelihood: %v", m.maxL)
	log.Infof("Likelihood function calls: %v", m.calls)
	m.PrintFinal(m.parameters)
	return nil
}
