package ledger

import "sort"

// mean returns the arithmetic mean. Callers guarantee a non-empty slice.
func mean(values []int) float64 {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// groupedMedian computes the median assuming grouped continuous data with a
// class width of 1: L + (n/2 - cf) / f, where L is the lower bound of the
// class holding the middle value, cf the count of values below that class and
// f its frequency. With distinct values this degenerates to interpolation
// between the two central order statistics.
func groupedMedian(values []int) float64 {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	n := len(sorted)
	x := sorted[n/2]
	cf := sort.SearchInts(sorted, x)
	f := sort.SearchInts(sorted, x+1) - cf
	lower := float64(x) - 0.5

	return lower + (float64(n)/2-float64(cf))/float64(f)
}
