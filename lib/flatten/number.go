package flatten

import (
	"regexp"
	"strconv"
	"strings"
)

var jsonNumber = regexp.MustCompile(`^(-?)(0|[1-9][0-9]*)(?:\.([0-9]+))?(?:[eE]([+-]?[0-9]+))?$`)

// maxExpandedDigits is how far a decimal point may move before the number is
// written in exponent form instead of being padded with zeros.
const maxExpandedDigits = 64

// CanonicalNumber rewrites a JSON number literal in plain decimal notation
// without going through a float: leading zeros of the integer part and
// trailing zeros of the fraction are dropped and exponents are expanded. ok
// is false for anything that is not a JSON number, NaN and Infinity included.
func CanonicalNumber(literal string) (string, bool) {
	return ScaleNumber(literal, 0)
}

// ScaleNumber multiplies a JSON number literal by 10^shift exactly, then
// renders it like CanonicalNumber.
func ScaleNumber(literal string, shift int) (string, bool) {
	m := jsonNumber.FindStringSubmatch(strings.TrimSpace(literal))
	if m == nil {
		return "", false
	}
	sign, whole, frac, expText := m[1], m[2], m[3], m[4]

	exp := shift
	if expText != "" {
		e, err := strconv.Atoi(expText)
		if err != nil {
			return "", false
		}
		exp += e
	}

	digits := whole + frac
	point := len(whole) + exp
	trimmed := strings.TrimLeft(digits, "0")
	point -= len(digits) - len(trimmed)
	digits = strings.TrimRight(trimmed, "0")
	if digits == "" {
		return "0", true
	}

	var out string
	switch {
	case point > maxExpandedDigits || point < -maxExpandedDigits:
		mantissa := digits[:1]
		if len(digits) > 1 {
			mantissa += "." + digits[1:]
		}
		out = mantissa + "e" + strconv.Itoa(point-1)
	case point <= 0:
		out = "0." + strings.Repeat("0", -point) + digits
	case point >= len(digits):
		out = digits + strings.Repeat("0", point-len(digits))
	default:
		out = digits[:point] + "." + digits[point:]
	}
	return sign + out, true
}
