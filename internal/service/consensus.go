package service

import (
	"sort"

	"github.com/xiaot623/pokr/internal/domain"
)

// computeResults builds the reveal outcome for a story from its votes.
func computeResults(story *domain.Story, votes []domain.Vote) *domain.VoteResults {
	values := make([]int, 0, len(votes))
	views := make([]domain.VoteView, 0, len(votes))
	distribution := make(map[int]int)
	for _, v := range votes {
		values = append(values, v.Estimate)
		distribution[v.Estimate]++
		views = append(views, voteView(v, false))
	}

	return &domain.VoteResults{
		StoryID:              story.ID,
		StoryTitle:           story.Title,
		Votes:                views,
		HasConsensus:         hasConsensus(values),
		SuggestedEstimate:    suggestEstimate(values),
		EstimateDistribution: distribution,
	}
}

// hasConsensus is true for a single vote, or when every value lies within
// one point of the others. Sentinels are compared by their numeric value.
func hasConsensus(values []int) bool {
	switch len(values) {
	case 0:
		return false
	case 1:
		return true
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return hi-lo <= 1
}

// suggestEstimate returns the most frequent value. When several values share
// the top count it falls back to the median, truncating the mean of the two
// middle values for an even count.
func suggestEstimate(values []int) *int {
	if len(values) == 0 {
		return nil
	}

	counts := make(map[int]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount, tied := 0, 0, false
	for v, c := range counts {
		switch {
		case c > bestCount:
			best, bestCount, tied = v, c, false
		case c == bestCount:
			tied = true
		}
	}
	if !tied {
		return &best
	}

	median := medianOf(values)
	return &median
}

func medianOf(values []int) int {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
