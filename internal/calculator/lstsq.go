package calculator

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Fit solves y = beta*x + alpha in the least-squares sense and returns the
// unrounded coefficients.
//
// The design matrix [x, 1] is factorized with a thin SVD. Singular values at
// or below eps*max(n, 2) times the largest one are treated as zero, and the
// minimum-norm solution for the remaining rank is returned. With a constant
// x the columns are collinear, rank is 1, and the result is the shortest
// (beta, alpha) reproducing mean(y).
func Fit(x, y []float64) (beta, alpha float64, err error) {
	n := len(x)
	if n != len(y) {
		return 0, 0, fmt.Errorf("fit: length mismatch %d != %d", n, len(y))
	}
	if n < 2 {
		return 0, 0, fmt.Errorf("%w: %d return observations", ErrInsufficientData, n)
	}

	a := mat.NewDense(n, 2, nil)
	for i, v := range x {
		a.Set(i, 0, v)
		a.Set(i, 1, 1)
	}
	b := mat.NewDense(n, 1, append([]float64(nil), y...))

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return 0, 0, errors.New("fit: svd factorization failed")
	}
	rank := svd.Rank(rcond(n))
	if rank == 0 {
		return 0, 0, nil
	}

	var sol mat.Dense
	svd.SolveTo(&sol, b, rank)
	return sol.At(0, 0), sol.At(1, 0), nil
}

func rcond(rows int) float64 {
	eps := math.Nextafter(1, 2) - 1
	return eps * float64(max(rows, 2))
}
