package money

import "github.com/shopspring/decimal"

// VATRatePercent is the Slovak VAT rate applied to all invoiced amounts.
const VATRatePercent = 19

var vatRate = decimal.New(VATRatePercent, -2) // 0.19

// VATBreakdown splits a VAT-inclusive gross amount into its net and VAT parts.
type VATBreakdown struct {
	NetAmount   decimal.Decimal `json:"net_amount"`
	VATAmount   decimal.Decimal `json:"vat_amount"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
}

// Round2 rounds to whole cents, ties away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Breakdown computes the VAT decomposition of a gross amount.
//
// The VAT amount is taken as a straight percentage of the gross
// (vat = round2(gross * 0.19), net = gross - vat), NOT the usual
// net = gross / 1.19 of a VAT-inclusive price. Issued invoices were
// produced with this decomposition, so it must stay exactly as is.
func Breakdown(gross decimal.Decimal) VATBreakdown {
	vat := Round2(gross.Mul(vatRate))
	net := Round2(gross.Sub(vat))
	return VATBreakdown{
		NetAmount:   net,
		VATAmount:   vat,
		GrossAmount: Round2(gross),
	}
}
