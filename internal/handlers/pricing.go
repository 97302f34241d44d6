package handlers

import (
	"fmt"
	"math"

	"storefront/internal/models"
)

type priceUpdateInput struct {
	PriceINR *float64
	PriceUSD *float64
}

type priceUpdateResult struct {
	PriceINR float64
	PriceUSD float64
	SetINR   bool
	SetUSD   bool
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// deriveUSD converts a rupee price with the configured rate. A missing rate
// yields zero so the caller can decide whether that is acceptable.
func deriveUSD(priceINR, inrPerUSD float64) float64 {
	if inrPerUSD <= 0 {
		return 0
	}
	return roundCents(priceINR / inrPerUSD)
}

func validatePrices(priceINR, priceUSD float64) error {
	if priceINR <= 0 {
		return fmt.Errorf("price_inr must be greater than 0")
	}
	if priceUSD < 0 {
		return fmt.Errorf("price_usd must not be negative")
	}
	return nil
}

// resolvePriceUpdate merges a partial price update into the stored prices.
// A new rupee price without a dollar price re-derives the dollar price.
func resolvePriceUpdate(existingINR, existingUSD, inrPerUSD float64, input priceUpdateInput) (priceUpdateResult, error) {
	result := priceUpdateResult{PriceINR: existingINR, PriceUSD: existingUSD}

	if input.PriceINR != nil {
		result.PriceINR = *input.PriceINR
		result.SetINR = true
		if input.PriceUSD == nil {
			result.PriceUSD = deriveUSD(result.PriceINR, inrPerUSD)
			result.SetUSD = true
		}
	}
	if input.PriceUSD != nil {
		result.PriceUSD = *input.PriceUSD
		result.SetUSD = true
	}

	if err := validatePrices(result.PriceINR, result.PriceUSD); err != nil {
		return priceUpdateResult{}, err
	}
	return result, nil
}

func orderTotals(items []models.OrderItem) (totalINR, totalUSD float64) {
	for _, item := range items {
		totalINR += item.PriceINR * float64(item.Quantity)
		totalUSD += item.PriceUSD * float64(item.Quantity)
	}
	return roundCents(totalINR), roundCents(totalUSD)
}
