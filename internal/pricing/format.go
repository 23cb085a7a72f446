package pricing

import (
	"math"
	"strconv"
	"strings"
)

const integralEpsilon = 1e-9

func isIntegral(v float64) bool {
	return math.Abs(v-math.Round(v)) < integralEpsilon
}

// FormatPrice renders integral values without decimals and fractional values with at
// most two decimals, trailing zeros stripped. No digit grouping.
func FormatPrice(v float64) string {
	if isIntegral(v) {
		return strconv.FormatInt(int64(math.Round(v)), 10)
	}
	return trimFraction(strconv.FormatFloat(v, 'f', 2, 64))
}

// FormatMoney is FormatPrice with thousands grouped by commas.
func FormatMoney(v float64) string {
	if isIntegral(v) {
		return groupThousands(strconv.FormatInt(int64(math.Round(v)), 10))
	}
	return trimFraction(groupThousands(strconv.FormatFloat(v, 'f', 2, 64)))
}

// FormatTons groups thousands only for fractional values; integral tonnage is printed
// as a plain integer.
func FormatTons(v float64) string {
	if isIntegral(v) {
		return strconv.FormatInt(int64(math.Round(v)), 10)
	}
	return trimFraction(groupThousands(strconv.FormatFloat(v, 'f', 2, 64)))
}

func trimFraction(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}

	var b strings.Builder
	head := len(intPart) % 3
	if head > 0 {
		b.WriteString(intPart[:head])
	}
	for i := head; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}
