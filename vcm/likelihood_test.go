package vcm

import (
	"math"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mrrlab/lmm/kinship"
)

const smallDiff = 1e-10

func init() {
	logging.SetLevel(logging.WARNING, "optimize")
	logging.SetLevel(logging.WARNING, "vcm")
}

// interceptRotation builds a synthetic rotated dataset with an
// intercept-only design.
func interceptRotation(y, lambda []float64) *kinship.Rotation {
	n := len(y)
	x := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
	}
	return &kinship.Rotation{
		Y:      mat.NewDense(n, 1, y),
		X:      x,
		Lambda: lambda,
	}
}

func TestLogLikUniformWeights(t *testing.T) {
	// With unit eigenvalues the weights are one for any h2 and the
	// likelihood has a closed scalar form.
	rot := interceptRotation([]float64{1, 3}, []float64{1, 1})

	// b = 2, rss = 2.
	for _, logSigma2 := range []float64{0, math.Log(2), -1.5} {
		sigma2 := math.Exp(logSigma2)
		want := -0.5 * (2/sigma2 + 2*logSigma2)
		for _, h2 := range []float64{0.1, 0.5, 0.9} {
			got, err := LogLik(logSigma2, h2, rot)
			require.NoError(t, err)
			assert.InDelta(t, want, got, smallDiff)
		}
	}
}

func TestLogLikWeighted(t *testing.T) {
	lambda := []float64{3, 0.2}
	y := []float64{1, 3}
	rot := interceptRotation(y, lambda)

	h2 := 0.5
	w := []float64{h2*lambda[0] + (1 - h2), h2*lambda[1] + (1 - h2)}
	// GLS mean with precision 1/w.
	b := (y[0]/w[0] + y[1]/w[1]) / (1/w[0] + 1/w[1])
	rssw := (y[0]-b)*(y[0]-b)/w[0] + (y[1]-b)*(y[1]-b)/w[1]

	logSigma2 := 0.3
	sigma2 := math.Exp(logSigma2)
	want := -0.5 * (rssw/sigma2 + math.Log(w[0]) + math.Log(w[1]) + 2*logSigma2)

	got, err := LogLik(logSigma2, h2, rot)
	require.NoError(t, err)
	assert.InDelta(t, want, got, smallDiff)
}

func TestLogLikH2Range(t *testing.T) {
	rot := interceptRotation([]float64{1, 2, 3}, []float64{1, 1, 1})
	for _, h2 := range []float64{0, 1, -0.1, 1.5, math.NaN()} {
		_, err := LogLik(0, h2, rot)
		assert.Error(t, err)
	}
}

func TestWeights(t *testing.T) {
	lambda := []float64{2, 0.5, 1}
	w := Weights(lambda, 0.4, nil)
	assert.InDelta(t, 0.4*2+0.6, w[0], smallDiff)
	assert.InDelta(t, 0.4*0.5+0.6, w[1], smallDiff)
	assert.InDelta(t, 1.0, w[2], smallDiff)

	// dst reuse.
	dst := make([]float64, 3)
	got := Weights(lambda, 0.4, dst)
	assert.Equal(t, &dst[0], &got[0])
}

func TestVarianceModelLikelihood(t *testing.T) {
	rot, err := Simulate(SimOptions{
		N:      30,
		Coef:   []float64{1, 2},
		Lambda: constLambda(30, 1.3),
		Sigma2: 1.5,
		H2:     0.4,
		Seed:   3,
	})
	require.NoError(t, err)

	m := NewVarianceModel(rot)
	m.SetParameters(0.3, 0.4)
	want, err := LogLikTrait(0.3, Invlogit(0.4), rot, 0)
	require.NoError(t, err)
	assert.InDelta(t, want, m.Likelihood(), smallDiff)

	assert.InDelta(t, math.Exp(0.3), m.Sigma2(), smallDiff)
	assert.InDelta(t, Invlogit(0.4), m.H2(), smallDiff)
}

func TestVarianceModelBadDataLikelihood(t *testing.T) {
	rot := interceptRotation([]float64{1, math.NaN(), 3}, []float64{1, 1, 1})
	m := NewVarianceModel(rot)
	assert.True(t, math.IsInf(m.Likelihood(), -1))
}

func TestVarianceModelCopy(t *testing.T) {
	rot := interceptRotation([]float64{1, 2, 4}, []float64{2, 1, 0.5})
	m := NewVarianceModel(rot)
	m.SetParameters(0.1, -0.2)

	c := m.Copy().(*VarianceModel)
	assert.InDelta(t, m.Likelihood(), c.Likelihood(), smallDiff)

	// The copy is independent of the original.
	c.GetFloatParameters().SetValues([]float64{1.0, 1.0})
	assert.InDelta(t, 0.1, m.lsigma2, smallDiff)
	assert.InDelta(t, -0.2, m.lgh2, smallDiff)

	require.Equal(t, len(m.GetFloatParameters()), len(c.GetFloatParameters()))
}

func constLambda(n int, v float64) []float64 {
	l := make([]float64, n)
	for i := range l {
		l[i] = v
	}
	return l
}
