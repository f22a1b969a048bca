package ordinal

import It "github.com/maroda/ictus/types"

// Factorial returns n! for 0 <= n <= 20.
func Factorial(n int) int {
	f := 1
	for i := 2; i <= n; i++ {
		f *= i
	}
	return f
}

// Enumerate lists all d! permutations of 0..d-1 in lexicographic order,
// the same order as Python's itertools.permutations(range(d)).
func Enumerate(d int) []It.OrdinalPattern {
	if d < 1 {
		return nil
	}

	perm := make([]int, d)
	for i := range perm {
		perm[i] = i
	}

	all := make([]It.OrdinalPattern, 0, Factorial(d))
	for {
		p := make(It.OrdinalPattern, d)
		copy(p, perm)
		all = append(all, p)
		if !nextPermutation(perm) {
			return all
		}
	}
}

// nextPermutation advances p to its lexicographic successor in place.
// It returns false once p is the last permutation.
func nextPermutation(p []int) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]
	for l, r := i+1, len(p)-1; l < r; l, r = l+1, r-1 {
		p[l], p[r] = p[r], p[l]
	}
	return true
}

// Index returns the lexicographic rank of p among all permutations of
// 0..len(p)-1, so that Enumerate(len(p))[Index(p)] equals p.
//
// The rank is the Lehmer code of p read as a factorial-base number.
func Index(p It.OrdinalPattern) (int, error) {
	d := len(p)
	seen := make([]bool, d)
	for _, v := range p {
		if v < 0 || v >= d || seen[v] {
			return 0, ErrNotPermutation
		}
		seen[v] = true
	}

	rank := 0
	for i := 0; i < d; i++ {
		smaller := 0
		for j := i + 1; j < d; j++ {
			if p[j] < p[i] {
				smaller++
			}
		}
		rank += smaller * Factorial(d-1-i)
	}
	return rank, nil
}
