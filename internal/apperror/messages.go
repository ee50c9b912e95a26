package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError:   "Configuration error",
	CodeConfigurationMissing: "Configuration missing, falling back to defaults",

	// System errors
	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	// Quote ingestion
	CodeInvalidQuote:     "Invalid quote data",
	CodeQuoteStale:       "Quote is older than the allowed TTL",
	CodeQuoteUnavailable: "No quote available for pair",
	CodePriceOutOfRange:  "Price outside the sane range for asset class",
	CodePriceDeviation:   "Price deviates too far from the cross-venue median",

	// Fee catalog
	CodeUnknownVenue: "Unknown venue, using global default fee",
	CodeUnknownPair:  "Unknown pair, using venue default fee",

	// Cost and sizing models
	CodeLiquidityUnknown:      "Liquidity unknown, using asset-class default",
	CodeImpactExceeded:        "Estimated price impact exceeds the acceptable maximum",
	CodeComputationOverflow:   "Computation result clamped to its valid domain",
	CodeInvalidTradeSize:      "Invalid trade size",
	CodeInsufficientLiquidity: "Insufficient liquidity for trade size",

	// Risk scoring
	CodeRiskRejected:      "Candidate rejected by risk scoring",
	CodeConfidenceMissing: "Confidence missing, treated as zero",

	// External collaborators
	CodeGasPriceUnavailable: "Gas token price unavailable",
	CodeCircuitOpen:         "Circuit breaker is open",
}
