package smc

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PremiumDiscountZone is the equilibrium and OTE boundaries derived from a
// swing range.
type PremiumDiscountZone struct {
	RangeHigh    decimal.Decimal
	RangeLow     decimal.Decimal
	Equilibrium  decimal.Decimal
	OTELongLow   decimal.Decimal
	OTELongHigh  decimal.Decimal
	OTEShortLow  decimal.Decimal
	OTEShortHigh decimal.Decimal
}

var (
	zeroPointSeventyNine   = decimal.RequireFromString("0.79")
	zeroPointSixOneEight   = decimal.RequireFromString("0.618")
	zeroPointTwoOhFive     = decimal.RequireFromString("0.205")
	zeroPointThreeEightTwo = decimal.RequireFromString("0.382")
)

// ComputePremiumDiscount derives the equilibrium and OTE (Optimal Trade
// Entry) zones from a swing high/low range. The long OTE band is the
// 0.618-0.79 retracement from the high; the short band is its 0.205-0.382
// mirror from the low.
func ComputePremiumDiscount(swingHigh, swingLow decimal.Decimal) PremiumDiscountZone {
	if swingHigh.Equal(swingLow) {
		return PremiumDiscountZone{
			RangeHigh: swingHigh, RangeLow: swingLow, Equilibrium: swingHigh,
			OTELongLow: swingHigh, OTELongHigh: swingHigh,
			OTEShortLow: swingHigh, OTEShortHigh: swingHigh,
		}
	}

	equilibrium := swingHigh.Add(swingLow).Div(two)
	span := swingHigh.Sub(swingLow)

	return PremiumDiscountZone{
		RangeHigh:    swingHigh,
		RangeLow:     swingLow,
		Equilibrium:  equilibrium,
		OTELongLow:   swingHigh.Sub(span.Mul(zeroPointSeventyNine)),
		OTELongHigh:  swingHigh.Sub(span.Mul(zeroPointSixOneEight)),
		OTEShortLow:  swingLow.Add(span.Mul(zeroPointTwoOhFive)),
		OTEShortHigh: swingLow.Add(span.Mul(zeroPointThreeEightTwo)),
	}
}

// PriceZone classifies price as "premium", "discount", or "equilibrium"
// relative to zone.
func PriceZone(price decimal.Decimal, zone PremiumDiscountZone) string {
	switch {
	case price.GreaterThan(zone.Equilibrium):
		return "premium"
	case price.LessThan(zone.Equilibrium):
		return "discount"
	default:
		return "equilibrium"
	}
}

// InOTEZone reports whether price sits within the OTE band for direction
// ("long" or "short").
func InOTEZone(price decimal.Decimal, zone PremiumDiscountZone, direction string) (bool, error) {
	switch direction {
	case "long":
		return price.GreaterThanOrEqual(zone.OTELongLow) && price.LessThanOrEqual(zone.OTELongHigh), nil
	case "short":
		return price.GreaterThanOrEqual(zone.OTEShortLow) && price.LessThanOrEqual(zone.OTEShortHigh), nil
	default:
		return false, fmt.Errorf("smc: direction must be \"long\" or \"short\", got %q", direction)
	}
}
