// Package wls solves weighted least-squares problems through an
// orthogonal (QR) factorization. Weights are variance weights:
// observation i is modeled with variance sigma2*w[i], so rows are
// scaled by 1/sqrt(w[i]) before the factorization. The cross-product
// matrix X'X is never formed.
package wls

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Errors returned by Solve.
var (
	ErrNonPositiveWeight = errors.New("wls: non-positive weight")
	ErrSingularDesign    = errors.New("wls: design matrix is rank deficient")
)

// singTol is the relative threshold on the R diagonal below which the
// design is treated as rank deficient.
const singTol = 1e-12

// Result holds a weighted least-squares fit.
type Result struct {
	// Coef is the fixed-effect coefficient vector, length p.
	Coef *mat.VecDense
	// Sigma2 is the residual variance estimate: rss/(n-p) under
	// REML, rss/n under ML, with rss computed on the weighted scale.
	Sigma2 float64
	// Resid is the unscaled residual y - X*b; nil unless requested.
	Resid *mat.VecDense
}

// Solve fits y = X*b with per-observation variance weights w. With all
// weights equal to one it reduces to ordinary least squares. Any
// non-positive (or NaN) weight is rejected with ErrNonPositiveWeight;
// a numerically singular weighted design is rejected with
// ErrSingularDesign.
func Solve(y *mat.VecDense, x *mat.Dense, w []float64, reml, wantResid bool) (*Result, error) {
	n, p := x.Dims()
	if y.Len() != n || len(w) != n {
		return nil, fmt.Errorf("wls: dimension mismatch: y %d, X %dx%d, w %d", y.Len(), n, p, len(w))
	}
	if n < p {
		return nil, fmt.Errorf("%w: %d observations for %d covariates", ErrSingularDesign, n, p)
	}
	for i, wi := range w {
		if !(wi > 0) {
			return nil, fmt.Errorf("%w: w[%d]=%v", ErrNonPositiveWeight, i, wi)
		}
	}

	// Scale rows by 1/sqrt(w): the scaled system is homoscedastic.
	ys := mat.NewVecDense(n, nil)
	xs := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		si := 1 / math.Sqrt(w[i])
		ys.SetVec(i, y.AtVec(i)*si)
		for j := 0; j < p; j++ {
			xs.Set(i, j, x.At(i, j)*si)
		}
	}

	var qr mat.QR
	qr.Factorize(xs)
	if err := checkRank(&qr, p); err != nil {
		return nil, err
	}

	b := mat.NewVecDense(p, nil)
	if err := qr.SolveVecTo(b, false, ys); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 0) {
			return nil, fmt.Errorf("%w: %v", ErrSingularDesign, err)
		}
	}

	// Residuals on the original scale; rss on the weighted scale.
	yhat := mat.NewVecDense(n, nil)
	yhat.MulVec(x, b)
	resid := mat.NewVecDense(n, nil)
	resid.SubVec(y, yhat)
	rss := 0.0
	for i := 0; i < n; i++ {
		ri := resid.AtVec(i)
		rss += ri * ri / w[i]
	}

	dof := n
	if reml {
		dof = n - p
	}
	res := &Result{
		Coef:   b,
		Sigma2: rss / float64(dof),
	}
	if wantResid {
		res.Resid = resid
	}
	return res, nil
}

// checkRank inspects the diagonal of R for numerical rank deficiency.
func checkRank(qr *mat.QR, p int) error {
	var r mat.Dense
	qr.RTo(&r)
	maxDiag := 0.0
	for j := 0; j < p; j++ {
		maxDiag = math.Max(maxDiag, math.Abs(r.At(j, j)))
	}
	if maxDiag == 0 {
		return fmt.Errorf("%w: zero design", ErrSingularDesign)
	}
	for j := 0; j < p; j++ {
		if math.Abs(r.At(j, j)) <= singTol*maxDiag {
			return fmt.Errorf("%w: R[%d,%d] negligible", ErrSingularDesign, j, j)
		}
	}
	return nil
}
