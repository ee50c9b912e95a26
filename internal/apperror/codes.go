package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError   Code = "CONFIGURATION_ERROR"
	CodeConfigurationMissing Code = "CONFIGURATION_MISSING"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Evaluation-specific error codes
const (
	// Quote ingestion
	CodeInvalidQuote     Code = "INVALID_QUOTE"
	CodeQuoteStale       Code = "QUOTE_STALE"
	CodeQuoteUnavailable Code = "QUOTE_UNAVAILABLE"
	CodePriceOutOfRange  Code = "PRICE_OUT_OF_RANGE"
	CodePriceDeviation   Code = "PRICE_DEVIATION"

	// Fee catalog
	CodeUnknownVenue Code = "UNKNOWN_VENUE"
	CodeUnknownPair  Code = "UNKNOWN_PAIR"

	// Cost and sizing models
	CodeLiquidityUnknown      Code = "LIQUIDITY_UNKNOWN"
	CodeImpactExceeded        Code = "IMPACT_EXCEEDED"
	CodeComputationOverflow   Code = "COMPUTATION_OVERFLOW"
	CodeInvalidTradeSize      Code = "INVALID_TRADE_SIZE"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"

	// Risk scoring
	CodeRiskRejected      Code = "RISK_REJECTED"
	CodeConfidenceMissing Code = "CONFIDENCE_MISSING"

	// External collaborators
	CodeGasPriceUnavailable Code = "GAS_PRICE_UNAVAILABLE"
	CodeCircuitOpen         Code = "CIRCUIT_OPEN"
)
