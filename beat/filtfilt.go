package beat

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PadLength is the odd-extension length FiltFilt adds at each edge.
func PadLength(b, a []float64) int {
	return 3 * max(len(a), len(b))
}

// FiltFilt applies the filter forward and then backward, giving zero phase.
// Edges are extended by odd reflection and both passes start from the
// steady-state initial conditions scaled to the first sample.
func FiltFilt(b, a, x []float64) ([]float64, error) {
	edge := PadLength(b, a)
	if len(x) <= edge {
		return nil, fmt.Errorf("%w: %d samples, need more than %d", ErrSignalTooShortForFilter, len(x), edge)
	}
	b, a = normalize(b, a)

	n := len(x)
	ext := make([]float64, 0, n+2*edge)
	for i := edge; i > 0; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := 0; i < edge; i++ {
		ext = append(ext, 2*x[n-1]-x[n-2-i])
	}

	zi, err := lfilterZi(b, a)
	if err != nil {
		return nil, err
	}

	y := lfilter(b, a, ext, scaled(zi, ext[0]))
	reverse(y)
	y = lfilter(b, a, y, scaled(zi, y[0]))
	reverse(y)

	out := make([]float64, n)
	copy(out, y[edge:edge+n])
	return out, nil
}

// lfilterZi solves (I - A^T) zi = B for the companion matrix A of a,
// the state that makes a step input produce a step output.
func lfilterZi(b, a []float64) ([]float64, error) {
	n := len(a) - 1
	if n == 0 {
		return nil, nil
	}

	lhs := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		lhs.Set(i, i, 1)
	}
	// A[0][j] = -a[j+1], A[i][i-1] = 1; subtract the transpose
	for j := 0; j < n; j++ {
		lhs.Set(j, 0, lhs.At(j, 0)+a[j+1])
	}
	for i := 1; i < n; i++ {
		lhs.Set(i-1, i, lhs.At(i-1, i)-1)
	}

	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, b[i+1]-a[i+1]*b[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(lhs, rhs); err != nil {
		return nil, fmt.Errorf("beat: filter initial conditions: %w", err)
	}
	return mat.Col(nil, 0, &zi), nil
}

// lfilter runs the direct form II transposed recursion with initial state zi.
func lfilter(b, a, x, zi []float64) []float64 {
	k := len(b)
	z := make([]float64, k)
	copy(z, zi)

	y := make([]float64, len(x))
	for n, v := range x {
		out := b[0]*v + z[0]
		for i := 0; i < k-2; i++ {
			z[i] = b[i+1]*v + z[i+1] - a[i+1]*out
		}
		if k > 1 {
			z[k-2] = b[k-1]*v - a[k-1]*out
		}
		y[n] = out
	}
	return y
}

// normalize pads b and a to equal length and divides both by a[0].
func normalize(b, a []float64) ([]float64, []float64) {
	k := max(len(a), len(b))
	nb := make([]float64, k)
	na := make([]float64, k)
	copy(nb, b)
	copy(na, a)
	if na[0] != 1 {
		a0 := na[0]
		for i := range nb {
			nb[i] /= a0
			na[i] /= a0
		}
	}
	return nb, na
}

func scaled(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[i] * s
	}
	return out
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}
