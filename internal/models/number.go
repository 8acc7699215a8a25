package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// priceObjectKeys are probed, in order, when a price is stored as an object.
// "$numberDecimal" covers extended-JSON decimals that went through a JSON cache.
var priceObjectKeys = []string{"$numberDecimal", "amount", "value", "price", "sell_price", "mrp"}

// ToNumber coerces a stored value into a finite float64. Strings are stripped
// of currency symbols, grouping commas and whitespace before parsing. Values
// that cannot be parsed, or parse to NaN/Inf, report ok=false rather than zero.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		return parseNumeric(n.String())
	case primitive.Decimal128:
		return parseNumeric(n.String())
	case string:
		return parseNumeric(n)
	case *float64:
		if n == nil {
			return 0, false
		}
		return finite(*n)
	}

	if m, ok := AsMap(v); ok {
		for _, k := range priceObjectKeys {
			if inner, present := m[k]; present {
				if f, ok := ToNumber(inner); ok {
					return f, true
				}
			}
		}
	}
	return 0, false
}

// NumberPtr is ToNumber returning nil for absent values.
func NumberPtr(v any) *float64 {
	f, ok := ToNumber(v)
	if !ok {
		return nil
	}
	return &f
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumeric(s string) (float64, bool) {
	cleaned := cleanNumeric(s)
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

// cleanNumeric keeps digits and a '-' that starts a number. A '.' is kept only between
// digits or at the start of the number ("-.5", ".5"), so the dot in a "Rs."
// prefix is dropped: "Rs.1,299" becomes "1299".
func cleanNumeric(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		nextDigit := i+1 < len(runes) && isASCIIDigit(runes[i+1])
		switch {
		case isASCIIDigit(r):
			b.WriteRune(r)
		case r == '-':
			if nextDigit || (i+1 < len(runes) && runes[i+1] == '.') {
				b.WriteRune(r)
			}
		case r == '.':
			if !nextDigit {
				continue
			}
			if i == 0 || isASCIIDigit(runes[i-1]) || runes[i-1] == '-' || runes[i-1] == '+' {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
