package entropy

// WindowStarts returns every start offset for windows of size window
// moved by step over n samples: 0, step, 2*step, ... while start+window <= n.
// Invalid arguments yield no starts.
func WindowStarts(n, window, step int) []int {
	if window < 1 || step < 1 || window > n {
		return nil
	}
	starts := make([]int, 0, WindowCount(n, window, step))
	for s := 0; s+window <= n; s += step {
		starts = append(starts, s)
	}
	return starts
}

// WindowCount is floor((n-window)/step) + 1, or 0 when no window fits.
func WindowCount(n, window, step int) int {
	if window < 1 || step < 1 || window > n {
		return 0
	}
	return (n-window)/step + 1
}
