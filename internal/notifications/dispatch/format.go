package dispatch

import (
	"fmt"
	"strings"
)

func humanStatus(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

// formatAmount renders minor units with two decimals.
func formatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
