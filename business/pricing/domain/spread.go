package domain

// Spread represents the price difference between a buy venue and a sell
// venue for the same pair.
type Spread struct {
	BuyVenue    string
	SellVenue   string
	BuyPrice    float64
	SellPrice   float64
	Pct         float64 // (sell - buy) / buy * 100
	BasisPoints float64 // (sell - buy) / buy * 10000
}

// CalculateSpread computes the spread of selling on sellVenue what was
// bought on buyVenue. A negative Pct means the trade loses on price alone.
func CalculateSpread(buyVenue, sellVenue string, buyPrice, sellPrice float64) Spread {
	s := Spread{
		BuyVenue:  buyVenue,
		SellVenue: sellVenue,
		BuyPrice:  buyPrice,
		SellPrice: sellPrice,
	}
	if buyPrice > 0 {
		s.Pct = (sellPrice - buyPrice) / buyPrice * 100
		s.BasisPoints = s.Pct * 100
	}
	return s
}

// IsPositive reports whether the spread favors the candidate direction.
func (s Spread) IsPositive() bool {
	return s.Pct > 0
}
