package beat

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Butter designs a digital Butterworth band-pass of the given prototype order.
// It returns transfer function coefficients b (numerator) and a (denominator),
// each of length 2*order+1, with a[0] == 1.
//
// The design follows the classic route: analog low-pass prototype poles,
// frequency pre-warping, low-pass to band-pass transform, then the bilinear
// transform, all in zero-pole-gain form.
func Butter(order int, low, high, fs float64) (b, a []float64, err error) {
	if fs <= 0 || math.IsNaN(fs) {
		return nil, nil, fmt.Errorf("%w: got %v", ErrSampleRate, fs)
	}
	if order < 1 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrFilterOrder, order)
	}
	nyq := fs / 2
	if !(low > 0 && low < high && high < nyq) {
		return nil, nil, fmt.Errorf("%w: [%v, %v] Hz at fs %v", ErrBand, low, high, fs)
	}

	// analog prototype, unit cutoff
	poles := make([]complex128, 0, order)
	for m := -order + 1; m < order; m += 2 {
		poles = append(poles, -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*order))))
	}

	// pre-warp the normalized band edges (digital fs of 2)
	const fs2 = 4.0
	w0 := fs2 * math.Tan(math.Pi*(low/nyq)/2)
	w1 := fs2 * math.Tan(math.Pi*(high/nyq)/2)
	bw := w1 - w0
	wo := math.Sqrt(w0 * w1)

	// low-pass to band-pass: every pole splits in two, order zeros land on 0
	bpPoles := make([]complex128, 0, 2*order)
	for _, p := range poles {
		lp := p * complex(bw/2, 0)
		bpPoles = append(bpPoles, lp+cmplx.Sqrt(lp*lp-complex(wo*wo, 0)))
	}
	for _, p := range poles {
		lp := p * complex(bw/2, 0)
		bpPoles = append(bpPoles, lp-cmplx.Sqrt(lp*lp-complex(wo*wo, 0)))
	}
	bpZeros := make([]complex128, order)
	gain := math.Pow(bw, float64(order))

	// bilinear transform
	num, den := complex(1, 0), complex(1, 0)
	zZeros := make([]complex128, 0, 2*order)
	zPoles := make([]complex128, 0, 2*order)
	for _, z := range bpZeros {
		zZeros = append(zZeros, (fs2+z)/(fs2-z))
		num *= fs2 - z
	}
	for _, p := range bpPoles {
		zPoles = append(zPoles, (fs2+p)/(fs2-p))
		den *= fs2 - p
	}
	for len(zZeros) < len(zPoles) {
		zZeros = append(zZeros, -1)
	}
	gain *= real(num / den)

	bc := poly(zZeros)
	ac := poly(zPoles)
	b = make([]float64, len(bc))
	a = make([]float64, len(ac))
	for i := range bc {
		b[i] = gain * real(bc[i])
		a[i] = real(ac[i])
	}
	return b, a, nil
}

// poly expands the monic polynomial with the given roots, highest power first.
func poly(roots []complex128) []complex128 {
	c := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(c)+1)
		for i, v := range c {
			next[i] += v
			next[i+1] -= v * r
		}
		c = next
	}
	return c
}
