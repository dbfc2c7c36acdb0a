package rating

import "math"

// dpTable maps a score fraction in hundredths (50..100) to the rating
// differential. Fractions below one half mirror it with the sign flipped.
var dpTable = [51]int{
	0, 7, 14, 21, 29, 36, 43, 50, 57, 65,
	72, 80, 87, 95, 102, 110, 117, 125, 133, 141,
	149, 158, 166, 175, 184, 193, 202, 211, 220, 230,
	240, 251, 262, 273, 284, 296, 309, 322, 336, 351,
	366, 383, 401, 422, 444, 470, 501, 538, 589, 677,
	800,
}

// Differential returns the dp value for score fraction p.
func Differential(p float64) int {
	if p >= 1 {
		return 800
	}
	if p <= 0 {
		return -800
	}
	hundredths := int(math.Round(p * 100))
	switch {
	case hundredths >= 50 && hundredths <= 100:
		return dpTable[hundredths-50]
	case hundredths >= 0 && hundredths < 50:
		return -dpTable[50-hundredths]
	}
	return int(math.Round(-400 * math.Log10(1/p-1)))
}

// PerformanceRating is the mean opponent rating plus the differential for
// total points scored over len(opponents) games. It is 0 for no opponents.
func PerformanceRating(opponents []int, total float64) int {
	if len(opponents) == 0 {
		return 0
	}
	sum := 0
	for _, r := range opponents {
		sum += r
	}
	n := float64(len(opponents))
	mean := float64(sum) / n
	return int(math.Round(mean + float64(Differential(total/n))))
}
