package asset

// Class buckets assets for the economic models: liquidity defaults,
// sane price ranges and tolerance multipliers are all resolved per class.
type Class string

const (
	ClassStable  Class = "stable"
	ClassMajor   Class = "major"
	ClassMidTier Class = "mid-tier"
	ClassOther   Class = "other"
)

// knownClasses maps well-known symbols to their class. Symbols not listed
// here fall back to ClassOther, the most conservative bucket.
var knownClasses = map[string]Class{
	"USDC": ClassStable,
	"USDT": ClassStable,
	"DAI":  ClassStable,
	"ETH":  ClassMajor,
	"WETH": ClassMajor,
	"WBTC": ClassMajor,
	"UNI":  ClassMidTier,
	"LINK": ClassMidTier,
	"AAVE": ClassMidTier,
}

// ClassifySymbol returns the class for a ticker symbol.
func ClassifySymbol(symbol string) Class {
	if c, ok := knownClasses[symbol]; ok {
		return c
	}
	return ClassOther
}
