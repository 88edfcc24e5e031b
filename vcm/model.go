// Package vcm estimates the variance components of a linear mixed
// model with a single genetic relatedness component: the covariance of
// the phenotype is sigma2*(h2*K + (1-h2)*I) for a known
// positive-definite kinship matrix K. Estimation maximizes the profile
// log-likelihood over log(sigma2) and logit(h2), with the fixed
// effects concentrated out by weighted least squares in the eigenbasis
// of K.
package vcm

import (
	"math"

	"github.com/op/go-logging"

	"github.com/mrrlab/lmm/kinship"
	"github.com/mrrlab/lmm/optimize"
)

var log = logging.MustGetLogger("vcm")

// Bounds of the unconstrained parameters. Wide enough to be
// effectively unconstrained while keeping exp and invlogit finite.
const (
	parMin = -20
	parMax = +20
)

// VarianceModel is the variance-component model as an
// optimize.Optimizable. Its two free parameters are log error variance
// and logit heritability, so any unconstrained optimizer always
// produces a valid (sigma2, h2) pair.
type VarianceModel struct {
	rot   *kinship.Rotation
	trait int

	lsigma2 float64 // log sigma2
	lgh2    float64 // logit h2

	parameters optimize.FloatParameters
}

// NewVarianceModel creates a model for the first trait of a rotated
// dataset. The rotation is shared read-only.
func NewVarianceModel(rot *kinship.Rotation) (m *VarianceModel) {
	m = &VarianceModel{
		rot: rot,
	}
	m.setupParameters()
	return
}

// NewVarianceModelTrait creates a model for trait column j.
func NewVarianceModelTrait(rot *kinship.Rotation, j int) (m *VarianceModel) {
	m = NewVarianceModel(rot)
	m.trait = j
	return
}

func (m *VarianceModel) setupParameters() {
	m.parameters = nil

	lsigma2 := optimize.NewBasicFloatParameter(&m.lsigma2, "lsigma2")
	lsigma2.SetMin(parMin)
	lsigma2.SetMax(parMax)
	lsigma2.SetPriorFunc(optimize.UniformPrior(parMin, parMax, false, false))
	lsigma2.SetProposalFunc(optimize.NormalProposal(0.1))

	lgh2 := optimize.NewBasicFloatParameter(&m.lgh2, "lgh2")
	lgh2.SetMin(parMin)
	lgh2.SetMax(parMax)
	lgh2.SetPriorFunc(optimize.UniformPrior(parMin, parMax, false, false))
	lgh2.SetProposalFunc(optimize.NormalProposal(0.1))

	m.parameters.Append(lsigma2)
	m.parameters.Append(lgh2)
}

// GetFloatParameters returns the optimization parameters.
func (m *VarianceModel) GetFloatParameters() optimize.FloatParameters {
	return m.parameters
}

// Copy returns an independent model sharing the read-only rotation.
func (m *VarianceModel) Copy() optimize.Optimizable {
	newM := NewVarianceModelTrait(m.rot, m.trait)
	newM.SetParameters(m.lsigma2, m.lgh2)
	return newM
}

// SetParameters sets the unconstrained parameter values.
func (m *VarianceModel) SetParameters(logSigma2, logitH2 float64) {
	m.lsigma2 = logSigma2
	m.lgh2 = logitH2
}

// Sigma2 returns the error variance at the current point.
func (m *VarianceModel) Sigma2() float64 {
	return math.Exp(m.lsigma2)
}

// H2 returns the heritability at the current point.
func (m *VarianceModel) H2() float64 {
	return Invlogit(m.lgh2)
}

// Likelihood computes the log-likelihood at the current parameters.
// Evaluation failures and NaN map to -Inf so optimizers move away.
func (m *VarianceModel) Likelihood() (lnL float64) {
	log.Debugf("x=%v", m.parameters.Values(nil))
	lnL, err := LogLikTrait(m.lsigma2, Invlogit(m.lgh2), m.rot, m.trait)
	if err != nil {
		log.Debugf("likelihood evaluation failed: %v", err)
		return math.Inf(-1)
	}
	if math.IsNaN(lnL) {
		lnL = math.Inf(-1)
	}
	log.Debugf("L=%v", lnL)
	return
}
