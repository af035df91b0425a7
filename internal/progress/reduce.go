package progress

import "math"

// epsilon nudges values like 1.005 that sit just below a rounding boundary in float64
const epsilon = 2.220446049250313e-16

// RoundPercent rounds half-up to one decimal place
func RoundPercent(v float64) float64 {
	return math.Round((v+epsilon)*10) / 10
}

// MaxTimeLeftSeconds bounds time estimates so they always fit an int64
const MaxTimeLeftSeconds = 1 << 53

// RoundSeconds rounds a time estimate to the nearest whole second, within [0, MaxTimeLeftSeconds]
func RoundSeconds(v float64) int64 {
	if !(v > 0) {
		return 0
	}
	return int64(math.Round(math.Min(v, MaxTimeLeftSeconds)))
}

// Reduce folds item statuses into one aggregate. It holds no state between calls.
//
// Items carrying an error are averaged by their numeric percent like every other item,
// so a failed item stuck below 100 keeps the batch from completing.
func Reduce(items []ItemStatus) Aggregate {
	if len(items) == 0 {
		return Aggregate{}
	}

	var totalPercent, totalTimeLeft float64
	completed := true
	for _, it := range items {
		totalPercent += it.Percent
		totalTimeLeft += float64(it.TimeLeftSeconds)
		if it.Percent < PercentMax {
			completed = false
		}
	}

	n := float64(len(items))
	return Aggregate{
		Percent:         RoundPercent(totalPercent / n),
		TimeLeftSeconds: RoundSeconds(totalTimeLeft / n),
		InProgress:      !completed,
		Completed:       completed,
	}
}
