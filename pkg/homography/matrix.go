// Package homography maps pixel coordinates onto the robot work surface
// using a 3x3 perspective matrix produced by an external calibration tool.
package homography

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a row-major 3x3 homography.
type Matrix [3][3]float64

// Identity returns the identity homography.
func Identity() Matrix {
	return Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// FromRows builds a Matrix from nested slices, as decoded from YAML.
func FromRows(rows [][]float64) (Matrix, error) {
	var m Matrix
	if len(rows) != 3 {
		return m, fmt.Errorf("%w: want 3 rows, got %d", ErrMalformed, len(rows))
	}
	for i, row := range rows {
		if len(row) != 3 {
			return m, fmt.Errorf("%w: row %d has %d columns, want 3", ErrMalformed, i, len(row))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return m, fmt.Errorf("%w: element [%d][%d] is not finite", ErrMalformed, i, j)
			}
			m[i][j] = v
		}
	}
	return m, nil
}

// Rows returns the matrix as nested slices.
func (m Matrix) Rows() [][]float64 {
	rows := make([][]float64, 3)
	for i := range m {
		rows[i] = []float64{m[i][0], m[i][1], m[i][2]}
	}
	return rows
}

func (m Matrix) dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
}

func fromDense(d mat.Matrix) Matrix {
	var m Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = d.At(i, j)
		}
	}
	return m
}

// Det returns the determinant.
func (m Matrix) Det() float64 {
	return mat.Det(m.dense())
}

// normalized returns m scaled to unit Frobenius norm. The mapping is
// unchanged since a homography is only defined up to scale.
func (m Matrix) normalized() (Matrix, bool) {
	n := mat.Norm(m.dense(), 2)
	if n == 0 {
		return m, false
	}
	var out Matrix
	for i := range m {
		for j := range m[i] {
			out[i][j] = m[i][j] / n
		}
	}
	return out, true
}

// Validate rejects singular matrices, which cannot describe a plane to
// plane mapping. The test runs on the normalized matrix so that the
// stored scale does not matter.
func (m Matrix) Validate() error {
	n, ok := m.normalized()
	if !ok {
		return fmt.Errorf("%w: all elements are zero", ErrMalformed)
	}
	if math.Abs(n.Det()) < singularEpsilon {
		return fmt.Errorf("%w: determinant is zero", ErrMalformed)
	}
	return nil
}

// Inverse returns the inverse homography.
func (m Matrix) Inverse() (Matrix, error) {
	var inv mat.Dense
	if err := inv.Inverse(m.dense()); err != nil {
		return Matrix{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return fromDense(&inv), nil
}

func (m Matrix) mul(o Matrix) Matrix {
	var out mat.Dense
	out.Mul(m.dense(), o.dense())
	return fromDense(&out)
}

// Apply performs the perspective transform of (x, y) without rounding.
func (m Matrix) Apply(x, y float64) (float64, float64, error) {
	u := m[0][0]*x + m[0][1]*y + m[0][2]
	v := m[1][0]*x + m[1][1]*y + m[1][2]
	w := m[2][0]*x + m[2][1]*y + m[2][2]
	if math.Abs(w) < degenerateEpsilon {
		return 0, 0, fmt.Errorf("%w: w=%g at (%g, %g)", ErrDegenerateProjection, w, x, y)
	}
	return u / w, v / w, nil
}

const (
	singularEpsilon   = 1e-12
	degenerateEpsilon = 1e-12
)
