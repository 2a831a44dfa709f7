package services

import (
	"math"

	"github.com/dustin/go-humanize"
)

// FormatMoney formats an amount with thousands separators and exactly two
// decimal places, e.g. $1,234,567.89.
func FormatMoney(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", math.Abs(amount))
}

// FormatHours formats hours with thousands separators and one decimal place.
func FormatHours(hours float64) string {
	sign := ""
	if hours < 0 {
		sign = "-"
	}
	return sign + humanize.FormatFloat("#,###.#", math.Abs(hours)) + "h"
}
