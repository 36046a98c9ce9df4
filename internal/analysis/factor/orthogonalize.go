package factor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// Orthogonalize regresses target on controls plus an intercept by ordinary
// least squares and returns the residuals. Rows where any input is NaN get a
// NaN residual and are left out of the fit.
func Orthogonalize(target []float64, controls ...[]float64) ([]float64, error) {
	n := len(target)
	for i, c := range controls {
		if len(c) != n {
			return nil, fmt.Errorf("%w: control %d has %d values, target has %d",
				domain.ErrInvalidInput, i, len(c), n)
		}
	}

	rows := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if complete(i, target, controls) {
			rows = append(rows, i)
		}
	}
	k := len(controls) + 1
	if len(rows) <= k {
		return nil, fmt.Errorf("%w: %d complete rows for %d regressors",
			domain.ErrInsufficientData, len(rows), k)
	}

	x := mat.NewDense(len(rows), k, nil)
	y := mat.NewVecDense(len(rows), nil)
	for r, i := range rows {
		x.Set(r, 0, 1)
		for j, c := range controls {
			x.Set(r, j+1, c[i])
		}
		y.SetVec(r, target[i])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return nil, fmt.Errorf("%w: regression is singular: %v", domain.ErrInvalidInput, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	resid := make([]float64, n)
	for i := range resid {
		resid[i] = math.NaN()
	}
	for r, i := range rows {
		resid[i] = y.AtVec(r) - fitted.AtVec(r)
	}
	return resid, nil
}

func complete(i int, target []float64, controls [][]float64) bool {
	if math.IsNaN(target[i]) {
		return false
	}
	for _, c := range controls {
		if math.IsNaN(c[i]) {
			return false
		}
	}
	return true
}

// OrthogonalizeFrame orthogonalises factors sequentially in the given order:
// the first is kept as is and each later factor is replaced by its residual
// against all earlier (already orthogonalised) factors. An empty order uses
// the frame's column order. Factors not named in order are dropped.
func OrthogonalizeFrame(frame Frame, order []string) (Frame, error) {
	if err := frame.Validate(); err != nil {
		return Frame{}, err
	}
	if len(order) == 0 {
		order = frame.Names()
	}

	out := Frame{Assets: append([]string(nil), frame.Assets...)}
	var prior [][]float64
	for _, name := range order {
		fac, ok := frame.Factor(name)
		if !ok {
			return Frame{}, fmt.Errorf("%w: unknown factor %q", domain.ErrInvalidInput, name)
		}

		values := append([]float64(nil), fac.Values...)
		if len(prior) > 0 {
			resid, err := Orthogonalize(values, prior...)
			if err != nil {
				return Frame{}, fmt.Errorf("orthogonalising %s: %w", name, err)
			}
			values = resid
		}
		prior = append(prior, values)
		out.Factors = append(out.Factors, Factor{Name: name, Values: values})
	}
	return out, nil
}
