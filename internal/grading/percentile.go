package grading

import (
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// Band lower bounds on the (n-i)/n percentile of a descending-sorted index.
const (
	topThreshold      = 0.88
	upperMidThreshold = 0.75
	midThreshold      = 0.50
	lowerMidThreshold = 0.25
)

const (
	bandTop = iota
	bandUpperMid
	bandMid
	bandLowerMid
	bandBottom
	bandCount
)

var distributionRanges = []struct {
	label string
	floor float64
}{
	{"90-100", 90},
	{"80-89", 80},
	{"70-79", 70},
	{"60-69", 60},
	{"50-59", 50},
	{"<50", 0},
}

// ComputeStatistics returns the five-tier reference scores and the mean.
// Input order does not matter.
func ComputeStatistics(scores []float64) models.PercentileStatistics {
	if len(scores) == 0 {
		return models.PercentileStatistics{}
	}

	n := len(scores)
	sorted := make([]float64, n)
	copy(sorted, scores)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	var bands [bandCount]null.Float64
	for i, score := range sorted {
		band := bandFor(float64(n-i) / float64(n))
		if !bands[band].Valid {
			bands[band] = null.Float64From(score)
		}
	}

	// An equal value in the next lower band collapses into the higher one.
	for i := 0; i < bandCount-1; i++ {
		if bands[i].Valid && bands[i+1].Valid && bands[i].Float64 == bands[i+1].Float64 {
			bands[i+1] = null.Float64{}
		}
	}
	for i := 1; i < bandCount; i++ {
		if !bands[i].Valid {
			bands[i] = bands[i-1]
		}
	}

	return models.PercentileStatistics{
		Mean:     null.Float64From(round2(mean(scores))),
		Top:      bands[bandTop],
		UpperMid: bands[bandUpperMid],
		Mid:      bands[bandMid],
		LowerMid: bands[bandLowerMid],
		Bottom:   bands[bandBottom],
	}
}

func bandFor(percentile float64) int {
	switch {
	case percentile >= topThreshold:
		return bandTop
	case percentile >= upperMidThreshold:
		return bandUpperMid
	case percentile >= midThreshold:
		return bandMid
	case percentile >= lowerMidThreshold:
		return bandLowerMid
	default:
		return bandBottom
	}
}

// ComputeDistribution counts scores into the six fixed ranges. Scores above
// 100 fall into the top range so that every input is counted once.
func ComputeDistribution(scores []float64) []models.DistributionBucket {
	buckets := make([]models.DistributionBucket, len(distributionRanges))
	for i, r := range distributionRanges {
		buckets[i].RangeLabel = r.label
	}
	for _, score := range scores {
		buckets[bucketFor(score)].Count++
	}
	return buckets
}

func bucketFor(score float64) int {
	last := len(distributionRanges) - 1
	for i, r := range distributionRanges[:last] {
		if score >= r.floor {
			return i
		}
	}
	return last
}
