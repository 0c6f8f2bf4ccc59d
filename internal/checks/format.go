package checks

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var numberPrinter = message.NewPrinter(language.English)

// FormatNumber rounds x to decimals places and prints it without trailing
// zeros, with commas between thousands: 1234.5678 -> "1,234.57".
func FormatNumber(x float64, decimals int) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	if decimals < 0 {
		decimals = 0
	}
	s := numberPrinter.Sprint(number.Decimal(x, number.MaxFractionDigits(decimals)))
	if s == "-0" {
		s = "0"
	}
	return s
}
