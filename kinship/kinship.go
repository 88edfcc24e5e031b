// Package kinship validates genetic relatedness (kinship) matrices and
// projects phenotype and covariate data into the kinship eigenbasis.
// The rotation diagonalizes the mixed-model covariance tau2*K +
// sigma2*I, so downstream weighted regression needs only scalar
// per-observation weights. The eigendecomposition is O(n^3) and is
// performed exactly once; the resulting Rotation is read-only and safe
// to share between concurrent estimations.
package kinship

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Validation errors returned by Rotate.
var (
	ErrDimensionMismatch   = errors.New("kinship: dimension mismatch")
	ErrNotSymmetric        = errors.New("kinship: matrix is not symmetric")
	ErrNotPositiveDefinite = errors.New("kinship: matrix is not positive definite")
)

// symTol is the relative tolerance of the symmetry check.
const symTol = 1e-10

// Rotation is a dataset projected into the eigenbasis of a kinship
// matrix K = V*diag(Lambda)*V'.
type Rotation struct {
	// Y is the rotated phenotype matrix V'*y, n x traits.
	Y *mat.Dense
	// X is the rotated covariate matrix V'*x, n x p.
	X *mat.Dense
	// Lambda holds the eigenvalues of K, ascending, all positive.
	// The order matches the columns of V.
	Lambda []float64
	// V is the orthonormal eigenvector matrix of K.
	V *mat.Dense
}

// NObs returns the number of observations.
func (r *Rotation) NObs() int {
	n, _ := r.X.Dims()
	return n
}

// NCovariates returns the number of fixed-effect covariates.
func (r *Rotation) NCovariates() int {
	_, p := r.X.Dims()
	return p
}

// NTraits returns the number of phenotype columns.
func (r *Rotation) NTraits() int {
	_, m := r.Y.Dims()
	return m
}

// Trait returns a copy of the j-th rotated phenotype column.
func (r *Rotation) Trait(j int) *mat.VecDense {
	return mat.NewVecDense(r.NObs(), mat.Col(nil, j, r.Y))
}

// Project rotates additional columns (e.g. per-marker genotypes when
// the kinship structure is shared across a scan) into the same
// eigenbasis.
func (r *Rotation) Project(a *mat.Dense) (*mat.Dense, error) {
	ar, ac := a.Dims()
	if ar != r.NObs() {
		return nil, fmt.Errorf("%w: %d rows, want %d", ErrDimensionMismatch, ar, r.NObs())
	}
	res := mat.NewDense(ar, ac, nil)
	res.Mul(r.V.T(), a)
	return res, nil
}

// Rotate validates k and projects y and x into its eigenbasis. It
// checks that row counts agree, that k is symmetric within a relative
// tolerance, and that k is positive definite (by attempting a Cholesky
// factorization). The returned Rotation is a pure function of the
// inputs.
func Rotate(y, x, k *mat.Dense) (*Rotation, error) {
	kr, kc := k.Dims()
	if kr != kc {
		return nil, fmt.Errorf("%w: kinship matrix is %dx%d, want square", ErrDimensionMismatch, kr, kc)
	}
	n := kr
	yr, _ := y.Dims()
	xr, xc := x.Dims()
	if yr != n || xr != n {
		return nil, fmt.Errorf("%w: %d phenotype rows, %d covariate rows, %d kinship rows",
			ErrDimensionMismatch, yr, xr, n)
	}
	if xc > n {
		return nil, fmt.Errorf("%w: more covariates (%d) than observations (%d)", ErrDimensionMismatch, xc, n)
	}

	sym, err := symmetrize(k)
	if err != nil {
		return nil, err
	}

	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return nil, ErrNotPositiveDefinite
	}

	var es mat.EigenSym
	if !es.Factorize(sym, true) {
		return nil, fmt.Errorf("kinship: eigendecomposition failed")
	}
	lambda := es.Values(nil)
	for _, l := range lambda {
		if l <= 0 {
			return nil, fmt.Errorf("%w: eigenvalue %v <= 0", ErrNotPositiveDefinite, l)
		}
	}
	var v mat.Dense
	es.VectorsTo(&v)

	yrot := mat.NewDense(yr, y.RawMatrix().Cols, nil)
	yrot.Mul(v.T(), y)
	xrot := mat.NewDense(xr, xc, nil)
	xrot.Mul(v.T(), x)

	return &Rotation{
		Y:      yrot,
		X:      xrot,
		Lambda: lambda,
		V:      &v,
	}, nil
}

// symmetrize checks symmetry within symTol and returns the averaged
// symmetric form, which irons out floating-point asymmetry.
func symmetrize(k *mat.Dense) (*mat.SymDense, error) {
	n, _ := k.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, k.At(i, i))
		for j := i + 1; j < n; j++ {
			a := k.At(i, j)
			b := k.At(j, i)
			scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
			if math.Abs(a-b) > symTol*scale {
				return nil, fmt.Errorf("%w: K[%d,%d]=%v, K[%d,%d]=%v", ErrNotSymmetric, i, j, a, j, i, b)
			}
			sym.SetSym(i, j, 0.5*(a+b))
		}
	}
	return sym, nil
}
