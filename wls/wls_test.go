package wls

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func uniform(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

func TestSolveExactFit(t *testing.T) {
	// y lies exactly in the column space of X.
	x := mat.NewDense(4, 2, []float64{
		1, 0,
		1, 1,
		1, 2,
		1, 3,
	})
	y := mat.NewVecDense(4, []float64{2, 5, 8, 11}) // 2 + 3*x
	res, err := Solve(y, x, uniform(4), false, false)
	require.NoError(t, err)
	assert.InDelta(t, 2, res.Coef.AtVec(0), 1e-10)
	assert.InDelta(t, 3, res.Coef.AtVec(1), 1e-10)
	assert.InDelta(t, 0, res.Sigma2, 1e-10)
}

func TestSolveMatchesNormalEquations(t *testing.T) {
	x := mat.NewDense(6, 2, []float64{
		1, -1.2,
		1, 0.3,
		1, 2.2,
		1, -0.7,
		1, 1.1,
		1, 0.4,
	})
	y := mat.NewVecDense(6, []float64{0.1, 1.3, 4.0, -0.4, 2.8, 1.0})

	res, err := Solve(y, x, uniform(6), false, false)
	require.NoError(t, err)

	// Reference fit through the normal equations (fine at this
	// scale, avoided in the implementation itself).
	var xtx, ref mat.Dense
	xtx.Mul(x.T(), x)
	var xty mat.VecDense
	xty.MulVec(x.T(), y)
	require.NoError(t, ref.Solve(&xtx, &xty))
	assert.InDelta(t, ref.At(0, 0), res.Coef.AtVec(0), 1e-8)
	assert.InDelta(t, ref.At(1, 0), res.Coef.AtVec(1), 1e-8)
}

func TestSolveRecoversTruthAsNGrows(t *testing.T) {
	n := 2000
	rng := rand.New(rand.NewPCG(7, 11))
	x := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	bTrue := []float64{1.5, -2.0}
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, rng.NormFloat64())
		y.SetVec(i, bTrue[0]+bTrue[1]*x.At(i, 1)+0.5*rng.NormFloat64())
	}
	res, err := Solve(y, x, uniform(n), false, false)
	require.NoError(t, err)
	assert.InDelta(t, bTrue[0], res.Coef.AtVec(0), 0.1)
	assert.InDelta(t, bTrue[1], res.Coef.AtVec(1), 0.1)
	assert.InDelta(t, 0.25, res.Sigma2, 0.05)
}

func TestSolveWeightsEquivalentToScaling(t *testing.T) {
	x := mat.NewDense(5, 2, []float64{
		1, 0.5,
		1, -1.0,
		1, 2.0,
		1, 0.1,
		1, -0.4,
	})
	y := mat.NewVecDense(5, []float64{1, -2, 4, 0.5, -1})
	w := []float64{0.5, 2.0, 1.0, 4.0, 0.25}

	weighted, err := Solve(y, x, w, false, false)
	require.NoError(t, err)

	// Scaling rows by 1/sqrt(w) and solving unweighted must agree.
	ys := mat.NewVecDense(5, nil)
	xs := mat.NewDense(5, 2, nil)
	for i := 0; i < 5; i++ {
		si := 1 / math.Sqrt(w[i])
		ys.SetVec(i, y.AtVec(i)*si)
		for j := 0; j < 2; j++ {
			xs.Set(i, j, x.At(i, j)*si)
		}
	}
	scaled, err := Solve(ys, xs, uniform(5), false, false)
	require.NoError(t, err)
	assert.InDelta(t, scaled.Coef.AtVec(0), weighted.Coef.AtVec(0), 1e-10)
	assert.InDelta(t, scaled.Coef.AtVec(1), weighted.Coef.AtVec(1), 1e-10)
	assert.InDelta(t, scaled.Sigma2, weighted.Sigma2, 1e-10)
}

func TestSolveREMLDenominator(t *testing.T) {
	x := mat.NewDense(6, 2, []float64{
		1, -1,
		1, 0,
		1, 1,
		1, 2,
		1, 3,
		1, 4,
	})
	y := mat.NewVecDense(6, []float64{0, 1, 1, 3, 2, 5})

	ml, err := Solve(y, x, uniform(6), false, false)
	require.NoError(t, err)
	reml, err := Solve(y, x, uniform(6), true, false)
	require.NoError(t, err)

	n, p := 6.0, 2.0
	assert.InDelta(t, ml.Sigma2*n/(n-p), reml.Sigma2, 1e-12)
	assert.Greater(t, reml.Sigma2, ml.Sigma2)
}

func TestSolveNonPositiveWeight(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{1, 1, 1})
	y := mat.NewVecDense(3, []float64{1, 2, 3})

	for _, bad := range []float64{0, -1, math.NaN()} {
		w := []float64{1, bad, 1}
		_, err := Solve(y, x, w, false, false)
		assert.ErrorIs(t, err, ErrNonPositiveWeight)
	}
}

func TestSolveSingularDesign(t *testing.T) {
	// Second column duplicates the intercept.
	x := mat.NewDense(4, 2, []float64{
		1, 1,
		1, 1,
		1, 1,
		1, 1,
	})
	y := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	_, err := Solve(y, x, uniform(4), false, false)
	assert.ErrorIs(t, err, ErrSingularDesign)
}

func TestSolveResiduals(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 1, 1, 1})
	y := mat.NewVecDense(4, []float64{1, 2, 3, 6})

	res, err := Solve(y, x, uniform(4), false, true)
	require.NoError(t, err)
	require.NotNil(t, res.Resid)
	mean := 3.0
	for i := 0; i < 4; i++ {
		assert.InDelta(t, y.AtVec(i)-mean, res.Resid.AtVec(i), 1e-12)
	}

	res, err = Solve(y, x, uniform(4), false, false)
	require.NoError(t, err)
	assert.Nil(t, res.Resid)
}

func TestSolveDimensionChecks(t *testing.T) {
	x := mat.NewDense(3, 1, []float64{1, 1, 1})
	y := mat.NewVecDense(3, []float64{1, 2, 3})
	_, err := Solve(y, x, []float64{1, 1}, false, false)
	assert.Error(t, err)

	// More covariates than observations cannot be full rank.
	xWide := mat.NewDense(2, 3, []float64{1, 0, 1, 0, 1, 1})
	yShort := mat.NewVecDense(2, []float64{1, 2})
	_, err = Solve(yShort, xWide, []float64{1, 1}, false, false)
	assert.ErrorIs(t, err, ErrSingularDesign)
}
