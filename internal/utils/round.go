// Package utils provides utility functions for the loan underwriting engine.
package utils

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// RoundCurrency rounds a monetary amount to whole currency units.
func RoundCurrency(v float64) float64 {
	return decimal.NewFromFloat(v).Round(0).InexactFloat64()
}

// RoundRatio rounds a percentage ratio to one decimal place.
func RoundRatio(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

// RoundRate rounds an interest rate to two decimal places.
func RoundRate(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatPercent renders a ratio rounded to one decimal with trailing zeros
// dropped: 90.909 -> "90.9", 80 -> "80".
func FormatPercent(v float64) string {
	return FormatNumber(v)
}

// FormatNumber renders a plain value such as an age limit, a score floor or
// a number of months, rounded to one decimal: 75 -> "75", 2.5 -> "2.5".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(RoundRatio(v), 'f', -1, 64)
}

// FormatAmount renders a monetary amount in whole units.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).Round(0).StringFixed(0)
}
