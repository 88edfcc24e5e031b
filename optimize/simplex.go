package optimize

import (
	"math"
)

const (
	// TINY prevents division by zero in the convergence test.
	TINY = 1e-10
	// SMALL is the maximum likelihood change between restarts.
	SMALL = 1e-6
)

// DS is a downhill simplex (Nelder-Mead style) optimizer which works
// on copies of the model, one per simplex point. After the first
// convergence the simplex is rebuilt once and optimization repeated,
// which protects against premature shrinkage.
type DS struct {
	BaseOptimizer
	delta      float64
	ftol       float64
	repeat     bool
	oldL       float64
	points     []Optimizable
	psum       []float64
	pointPars  []FloatParameters
	pointL     []float64
	newOpt     Optimizable
	newPar     FloatParameters
}

// NewDS creates a new downhill simplex optimizer.
func NewDS() (ds *DS) {
	ds = &DS{
		delta: 1,
		ftol:  TINY,
	}
	ds.repPeriod = 10
	return
}

// SetOptimizable sets the model and builds the initial simplex.
func (ds *DS) SetOptimizable(opt Optimizable) {
	ds.BaseOptimizer.SetOptimizable(opt)
	ds.createSimplex(opt, ds.delta)
}

func (ds *DS) createSimplex(opt Optimizable, delta float64) {
	parameters := opt.GetFloatParameters()
	ds.points = make([]Optimizable, len(parameters)+1)
	ds.pointPars = make([]FloatParameters, len(ds.points))
	ds.pointL = make([]float64, len(ds.points))
	ds.points[0] = opt
	ds.pointPars[0] = parameters
	for i := 1; i < len(ds.points); i++ {
		point := opt.Copy()
		ds.points[i] = point
		ds.pointPars[i] = point.GetFloatParameters()
	}
	for i := 0; i < len(parameters); i++ {
		parameter := ds.pointPars[i+1][i]
		parameter.Set(parameter.Get() + delta)
	}
	for i := range ds.points {
		if ds.pointPars[i].InRange() {
			ds.pointL[i] = ds.points[i].Likelihood()
			ds.calls++
		} else {
			ds.pointL[i] = math.Inf(-1)
		}
	}
}

func (ds *DS) calcPsum() {
	ds.psum = make([]float64, len(ds.pointPars[0]))
	for i := range ds.psum {
		for _, parameters := range ds.pointPars {
			ds.psum[i] += parameters[i].Get()
		}
	}
}

// amotry extrapolates by factor fac through the face of the simplex
// across from the low point and keeps the new point if it is better.
func (ds *DS) amotry(ilo int, fac float64) float64 {
	if ds.newOpt == nil {
		ds.newOpt = ds.points[0].Copy()
		ds.newPar = ds.newOpt.GetFloatParameters()
	}
	ds.calcPsum()
	ndim := len(ds.newPar)
	fac1 := (1 - fac) / float64(ndim)
	fac2 := fac1 - fac
	for j := 0; j < ndim; j++ {
		ds.newPar[j].Set(ds.psum[j]*fac1 - ds.pointPars[ilo][j].Get()*fac2)
	}
	var l float64
	if ds.newPar.InRange() {
		l = ds.newOpt.Likelihood()
		ds.calls++
	} else {
		l = math.Inf(-1)
	}
	if l > ds.pointL[ilo] {
		ds.points[ilo], ds.newOpt = ds.newOpt, ds.points[ilo]
		ds.pointPars[ilo], ds.newPar = ds.newPar, ds.pointPars[ilo]
		ds.pointL[ilo] = l
	}
	return l
}

// Run maximizes the likelihood for at most iterations iterations.
func (ds *DS) Run(iterations int) error {
	// Lowest (worst), next-lowest and highest points.
	var ilo, ihi int
	var llo, lnlo, lhi float64
	ds.PrintHeader(ds.pointPars[0])
	ds.maxL = math.Inf(-1)
	ds.converged = false
Iter:
	for ds.i = 1; ds.i <= iterations; ds.i++ {
		if ds.pointL[0] < ds.pointL[1] {
			ilo, ihi = 0, 1
		} else {
			ilo, ihi = 1, 0
		}
		llo = ds.pointL[ilo]
		lnlo = ds.pointL[ihi]
		lhi = ds.pointL[ihi]
		for i := 2; i < len(ds.points); i++ {
			if ds.pointL[i] >= lhi {
				lhi = ds.pointL[i]
				ihi = i
			}
			if ds.pointL[i] < llo {
				lnlo = llo
				llo = ds.pointL[i]
				ilo = i
			} else if ds.pointL[i] < lnlo {
				lnlo = ds.pointL[i]
			}
		}
		ds.saveMax(ds.pointPars[ihi], lhi)
		ds.l = lhi
		if ds.repPeriod > 0 && ds.i%ds.repPeriod == 0 {
			log.Debugf("%d: L=%f (%f)", ds.i, lhi, lhi-llo)
			ds.PrintLine(ds.pointPars[ihi], lhi)
		}

		rtol := 2 * math.Abs(lhi-llo) / (math.Abs(llo) + math.Abs(lhi) + TINY)
		if rtol < ds.ftol {
			if ds.repeat && math.Abs(ds.oldL-lhi) < SMALL {
				ds.converged = true
				break Iter
			}
			ds.repeat = true
			ds.oldL = lhi
			log.Infof("converged. retrying")
			ds.createSimplex(ds.points[ihi], ds.delta)
			continue
		}

		l := ds.amotry(ilo, -1)
		switch {
		case l >= lhi:
			ds.amotry(ilo, 2)
		case l <= lnlo:
			lsave := llo
			l := ds.amotry(ilo, 0.5)
			if l <= lsave {
				// Contract around the best point.
				for i := range ds.points {
					if i == ihi {
						continue
					}
					for j := range ds.pointPars[i] {
						ds.pointPars[i][j].Set(0.5 * (ds.pointPars[i][j].Get() + ds.pointPars[ihi][j].Get()))
					}
					if ds.pointPars[i].InRange() {
						ds.pointL[i] = ds.points[i].Likelihood()
						ds.calls++
					} else {
						ds.pointL[i] = math.Inf(-1)
					}
				}
			}
		}
	}
	if !ds.converged {
		log.Warningf("Iterations exceeded (%d)", iterations)
	}

	// Leave the driver model at the best point found.
	ds.parameters.Update(&ds.pointPars[ihi])
	ds.l = lhi

	log.Info("Finished downhill simplex")
	log.Noticef("Maximum likelihood: %v", ds.maxL)
	log.Infof("Likelihood function calls: %v", ds.calls)
	ds.PrintFinal(ds.pointPars[ihi])
	return nil
}
