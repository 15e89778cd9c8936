package domain

// Sentinel votes that carry no point value.
const (
	EstimateUnsure = -1
	EstimateBreak  = -2
)

// FibonacciEstimates is the deck of point values, in ascending order.
var FibonacciEstimates = []int{1, 2, 3, 5, 8, 13, 21}

// IsValidEstimate reports whether v can be cast as a vote.
func IsValidEstimate(v int) bool {
	return v == EstimateUnsure || v == EstimateBreak || IsValidFinalEstimate(v)
}

// IsValidFinalEstimate reports whether v can be committed as a story's final estimate.
func IsValidFinalEstimate(v int) bool {
	for _, e := range FibonacciEstimates {
		if e == v {
			return true
		}
	}
	return false
}
