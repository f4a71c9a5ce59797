package steam

import "github.com/avelory/steamflipper/internal/domain"

// PriceOverview is the raw payload of the priceoverview endpoint. Prices are
// locale-formatted strings and the volume may carry thousands separators.
// The payload is consumed once per fetch and never persisted.
type PriceOverview struct {
	Success     bool   `json:"success"`
	LowestPrice string `json:"lowest_price"`
	MedianPrice string `json:"median_price"`
	Volume      string `json:"volume"`
}

// BuildOpportunity converts a raw quote into a domain Opportunity. It returns
// nil when the quote is unusable: vendor-reported failure, missing price
// fields, non-positive parsed prices, or a malformed volume. A missing volume
// field means zero sales, not an error.
func BuildOpportunity(name string, quote *PriceOverview) *domain.Opportunity {
	if quote == nil || !quote.Success {
		return nil
	}
	if quote.LowestPrice == "" || quote.MedianPrice == "" {
		return nil
	}

	buyPrice := ParsePrice(quote.LowestPrice)
	sellPrice := ParsePrice(quote.MedianPrice)
	if buyPrice <= 0 || sellPrice <= 0 {
		return nil
	}

	volume := 0
	if quote.Volume != "" {
		v, err := ParseVolume(quote.Volume)
		if err != nil || v < 0 {
			return nil
		}
		volume = v
	}

	return &domain.Opportunity{
		Name:      name,
		BuyPrice:  buyPrice,
		SellPrice: sellPrice,
		Volume:    volume,
	}
}
