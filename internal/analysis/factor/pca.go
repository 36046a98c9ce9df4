package factor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// PCAResult holds the principal components of a frame.
type PCAResult struct {
	// Factors names the input columns, in loading order.
	Factors []string `json:"factors"`

	// Assets lists the rows that entered the decomposition.
	Assets []string `json:"assets"`

	// Components holds one loading vector per component, each len(Factors) long.
	Components [][]float64 `json:"components"`

	// ExplainedVariance is the variance captured by each component.
	ExplainedVariance []float64 `json:"explained_variance"`

	// ExplainedRatio is ExplainedVariance over the total variance.
	ExplainedRatio []float64 `json:"explained_ratio"`

	// Scores projects each asset onto the components.
	Scores [][]float64 `json:"scores"`
}

// PCA standardises each factor and extracts the first k principal
// components through singular value decomposition. k <= 0 keeps all of
// them. Assets with any NaN exposure are dropped.
func PCA(frame Frame, k int) (*PCAResult, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	p := len(frame.Factors)
	var rows []int
	for i := range frame.Assets {
		ok := true
		for _, fac := range frame.Factors {
			if math.IsNaN(fac.Values[i]) {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, i)
		}
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: PCA needs at least 2 complete rows, have %d",
			domain.ErrInsufficientData, len(rows))
	}

	data := mat.NewDense(len(rows), p, nil)
	for j, fac := range frame.Factors {
		col := make([]float64, len(rows))
		for r, i := range rows {
			col[r] = fac.Values[i]
		}
		data.SetCol(j, ZScore(col))
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, fmt.Errorf("%w: SVD did not converge", domain.ErrInvalidInput)
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	total := 0.0
	for _, v := range vars {
		total += v
	}

	avail := len(vars)
	if k <= 0 || k > avail {
		k = avail
	}

	res := &PCAResult{
		Factors:           frame.Names(),
		ExplainedVariance: append([]float64(nil), vars[:k]...),
		ExplainedRatio:    make([]float64, k),
		Components:        make([][]float64, k),
	}
	for _, i := range rows {
		res.Assets = append(res.Assets, frame.Assets[i])
	}
	for c := 0; c < k; c++ {
		if total > 0 {
			res.ExplainedRatio[c] = vars[c] / total
		}
		res.Components[c] = orient(mat.Col(nil, c, &vecs))
	}

	loadings := mat.NewDense(p, k, nil)
	for c := 0; c < k; c++ {
		loadings.SetCol(c, res.Components[c])
	}
	var scores mat.Dense
	scores.Mul(data, loadings)
	res.Scores = make([][]float64, len(rows))
	for r := range rows {
		res.Scores[r] = mat.Row(nil, r, &scores)
	}

	return res, nil
}

// orient flips a loading vector so its largest-magnitude entry is positive.
// SVD signs are arbitrary; this keeps output stable across runs.
func orient(v []float64) []float64 {
	maxIdx := 0
	for i := range v {
		if math.Abs(v[i]) > math.Abs(v[maxIdx]) {
			maxIdx = i
		}
	}
	if v[maxIdx] < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
	return v
}
