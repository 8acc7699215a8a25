// Package checkout computes order totals for a cart.
package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sashvara/storefront_api/internal/models"
)

// ErrUnknownPaymentMethod is returned for a payment method outside the fee tables.
var ErrUnknownPaymentMethod = errors.New("unknown payment method")

// Line is one cart entry as seen by the calculator.
type Line struct {
	Price float64 `json:"price"`
	Qty   int     `json:"qty"`
}

// Quote is the full breakdown for a cart. TaxIncluded is informational and
// already part of Subtotal.
type Quote struct {
	Subtotal          float64              `json:"subtotal"`
	ShippingCost      float64              `json:"shippingCost"`
	CouponCode        string               `json:"couponCode,omitempty"`
	CouponPercent     float64              `json:"couponPercent"`
	CouponDiscount    float64              `json:"couponDiscount"`
	PaymentAdjustment float64              `json:"paymentAdjustment"`
	TaxIncluded       float64              `json:"taxIncluded"`
	Total             float64              `json:"total"`
	AmountDue         float64              `json:"amountDue"`
	AmountDueMinor    int64                `json:"amountDueMinor"`
	PaymentMethod     models.PaymentMethod `json:"paymentMethod"`
}

// Rules holds the fee tables and rates.
type Rules struct {
	Shipping           map[models.PaymentMethod]decimal.Decimal
	Adjustment         map[models.PaymentMethod]decimal.Decimal
	Coupons            map[string]decimal.Decimal // upper-cased code -> percent
	TaxRate            decimal.Decimal
	PartialCODFraction decimal.Decimal
}

// DefaultRules returns the storefront's fee tables. Online payment gets a
// flat discount; cash on delivery carries the higher shipping fee.
func DefaultRules(taxRate, partialFraction float64) Rules {
	return Rules{
		Shipping: map[models.PaymentMethod]decimal.Decimal{
			models.PaymentMethodUPI:        decimal.NewFromInt(30),
			models.PaymentMethodCOD:        decimal.NewFromInt(70),
			models.PaymentMethodPartialCOD: decimal.NewFromInt(45),
		},
		Adjustment: map[models.PaymentMethod]decimal.Decimal{
			models.PaymentMethodUPI:        decimal.NewFromInt(-30),
			models.PaymentMethodCOD:        decimal.Zero,
			models.PaymentMethodPartialCOD: decimal.Zero,
		},
		Coupons: map[string]decimal.Decimal{
			"WELCOME10": decimal.NewFromInt(10),
			"SAVE20":    decimal.NewFromInt(20),
		},
		TaxRate:            decimal.NewFromFloat(taxRate),
		PartialCODFraction: decimal.NewFromFloat(partialFraction),
	}
}

// Calculator applies Rules to carts.
type Calculator struct {
	rules Rules
}

// NewCalculator creates a Calculator.
func NewCalculator(rules Rules) *Calculator {
	return &Calculator{rules: rules}
}

// Quote prices a cart. Unknown coupons apply no discount. The total never
// goes below zero.
func (c *Calculator) Quote(lines []Line, method models.PaymentMethod, coupon string) (*Quote, error) {
	method = models.PaymentMethod(strings.ToLower(strings.TrimSpace(string(method))))
	shipping, ok := c.rules.Shipping[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, method)
	}
	adjustment := c.rules.Adjustment[method]

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Qty))))
	}

	code := strings.ToUpper(strings.TrimSpace(coupon))
	pct, known := c.rules.Coupons[code]
	if !known {
		pct = decimal.Zero
		code = ""
	}
	couponDiscount := subtotal.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)

	total := subtotal.Add(shipping).Sub(couponDiscount).Add(adjustment)
	if total.IsNegative() {
		total = decimal.Zero
	}
	total = total.Round(2)

	due := decimal.Zero
	switch method {
	case models.PaymentMethodUPI:
		due = total
	case models.PaymentMethodPartialCOD:
		due = total.Mul(c.rules.PartialCODFraction).Round(2)
	}

	return &Quote{
		Subtotal:          subtotal.Round(2).InexactFloat64(),
		ShippingCost:      shipping.InexactFloat64(),
		CouponCode:        code,
		CouponPercent:     pct.InexactFloat64(),
		CouponDiscount:    couponDiscount.InexactFloat64(),
		PaymentAdjustment: adjustment.InexactFloat64(),
		TaxIncluded:       subtotal.Mul(c.rules.TaxRate).Round(2).InexactFloat64(),
		Total:             total.InexactFloat64(),
		AmountDue:         due.InexactFloat64(),
		AmountDueMinor:    ToMinor(due.InexactFloat64()),
		PaymentMethod:     method,
	}, nil
}

// ToMinor converts a major-unit amount to minor units (paise), rounding half
// away from zero.
func ToMinor(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
