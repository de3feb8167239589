package currency

import (
	"fmt"
	"math"
	"strings"
)

// Currencies grouped with a dot separator; everything else gets commas.
var dotGrouped = map[string]bool{
	"IDR": true,
	"VND": true,
	"EUR": true,
}

// Format renders an amount as "CODE 1,234,567", rounding to whole units.
func Format(amount float64, code string) string {
	code = strings.ToUpper(code)
	sep := ","
	if dotGrouped[code] {
		sep = "."
	}

	rounded := math.Round(amount)

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	intStr := fmt.Sprintf("%.0f", rounded)
	formatted := addThousandsSeparator(intStr, sep)

	result := code + " " + formatted
	if negative {
		result = "-" + result
	}

	return result
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}
