package cart

import "github.com/shopspring/decimal"

// Pricing holds the billing policy applied when deriving a summary from cart
// lines: a percentage discount above a subtotal threshold, a tax on the
// discounted base, and a flat delivery charge.
type Pricing struct {
	DiscountThreshold decimal.Decimal
	DiscountRate      decimal.Decimal
	TaxRate           decimal.Decimal
	DeliveryFee       decimal.Decimal
}

// DefaultPricing returns the shop's standing policy: 5% off subtotals above
// 100.00, 10% tax on the discounted base, no delivery charge.
//
// The delivery fee exists in the policy but stays zero; the submission payload
// carries an isDelivery flag that nothing prices yet.
func DefaultPricing() Pricing {
	return Pricing{
		DiscountThreshold: decimal.NewFromInt(100),
		DiscountRate:      decimal.New(5, -2),  // 0.05
		TaxRate:           decimal.New(10, -2), // 0.10
		DeliveryFee:       decimal.Zero,
	}
}

// Summary is the derived monetary breakdown of a cart. Amounts are kept at
// full precision; round only at presentation time so rounding error never
// compounds across lines.
type Summary struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Delivery decimal.Decimal
	Total    decimal.Decimal
}

// Rounded returns a presentation copy of the summary with every amount
// rounded to 2 decimal places.
func (s Summary) Rounded() Summary {
	return Summary{
		Subtotal: s.Subtotal.Round(2),
		Discount: s.Discount.Round(2),
		Tax:      s.Tax.Round(2),
		Delivery: s.Delivery.Round(2),
		Total:    s.Total.Round(2),
	}
}

// Summarize derives the bill summary for the given lines:
//
//	subtotal = Σ unitPrice × quantity
//	discount = subtotal > threshold ? subtotal × rate : 0
//	tax      = (subtotal − discount) × taxRate
//	total    = subtotal − discount + tax + delivery
func (p Pricing) Summarize(lines []Line) Summary {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}

	discount := decimal.Zero
	if subtotal.GreaterThan(p.DiscountThreshold) {
		discount = subtotal.Mul(p.DiscountRate)
	}

	tax := subtotal.Sub(discount).Mul(p.TaxRate)
	total := subtotal.Sub(discount).Add(tax).Add(p.DeliveryFee)

	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Delivery: p.DeliveryFee,
		Total:    total,
	}
}
