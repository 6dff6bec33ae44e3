// Package money handles amounts stored as integer minor units.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const defaultExponent = 2

// exponents lists the ISO-4217 currencies whose minor unit is not 1/100.
var exponents = map[string]int{
	"BHD": 3,
	"IQD": 3,
	"JOD": 3,
	"KWD": 3,
	"LYD": 3,
	"OMR": 3,
	"TND": 3,
	"JPY": 0,
	"KRW": 0,
}

// chargeSteps lists currencies whose card charges must be a multiple of more than one minor unit.
var chargeSteps = map[string]int64{
	"BHD": 10,
	"JOD": 10,
	"KWD": 10,
	"OMR": 10,
}

// ChargeStep returns the smallest amount, in minor units, a card charge in currency may move by.
func ChargeStep(currency string) int64 {
	if step, ok := chargeSteps[strings.ToUpper(currency)]; ok {
		return step
	}

	return 1
}

// Chargeable reports whether amount can be charged by card in currency.
func Chargeable(amount int64, currency string) bool {
	return amount%ChargeStep(currency) == 0
}

// Exponent returns the number of decimal places of currency.
func Exponent(currency string) int {
	if exp, ok := exponents[strings.ToUpper(currency)]; ok {
		return exp
	}

	return defaultExponent
}

// FormatMinor renders an amount in minor units as a decimal string, e.g. 12500 SAR -> "125.00".
func FormatMinor(amount int64, currency string) string {
	exp := Exponent(currency)
	if exp == 0 {
		return strconv.FormatInt(amount, 10)
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	unit := int64(math.Pow10(exp))

	return fmt.Sprintf("%s%d.%0*d", sign, amount/unit, exp, amount%unit)
}

// ParseMajor converts a decimal string such as "125.5" into minor units of currency.
func ParseMajor(value, currency string) (int64, error) {
	exp := Exponent(currency)

	whole, frac, _ := strings.Cut(strings.TrimSpace(value), ".")
	if len(frac) > exp {
		return 0, fmt.Errorf("amount %q has more than %d decimals", value, exp)
	}

	frac += strings.Repeat("0", exp-len(frac))

	amount, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}

	return amount, nil
}
