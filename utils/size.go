package utils

import "strconv"

func formatSize(v float64, suffix string) string {
	if suffix == "B" || v >= 100 {
		return strconv.FormatFloat(v, 'f', 0, 64) + " " + suffix
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + " " + suffix
}
