package recommendation

// Timeframes reported with a recommendation.
const (
	TimeframeOneToThreeDays      = "1-3 days"
	TimeframeSevenToFourteenDays = "7-14 days"
	TimeframeNow                 = "now"
	TimeframeThreeToSevenDays    = "3-7 days"
	TimeframeImmediately         = "immediately"
	TimeframeObserve             = "observe 7 days"
	TimeframeAfterAnalysis       = "after further analysis"
	TimeframeNeedsConfirmation   = " (needs confirmation)"
)

// FallbackConfidence is reported when no forecast could be made.
const FallbackConfidence = 0.3

// Constants holds every threshold, factor and cap of both rule tables.
// Thresholds on price change are percentages; confidence and volatility are fractions.
type Constants struct {
	OptimistIncreaseThreshold float64
	OptimistIncreaseFactor    float64
	OptimistIncreaseCap       float64
	OptimistHoldThreshold     float64
	OptimistDecreaseFactor    float64
	OptimistDecreaseCap       float64

	OptimistIncreaseHoldBelow     float64
	OptimistIncreaseDampenBelow   float64
	OptimistIncreaseDampenFactor  float64
	OptimistDecreaseMaxVolatility float64
	OptimistDecreaseDampenBelow   float64
	OptimistDecreaseDampenFactor  float64

	PessimistIncreaseThreshold     float64
	PessimistIncreaseMinConfidence float64
	PessimistIncreaseFactor        float64
	PessimistIncreaseCap           float64
	PessimistDecreaseThreshold     float64
	PessimistDecreaseFactor        float64
	PessimistDecreaseCap           float64

	PessimistIncreaseHoldBelow     float64
	PessimistIncreaseDampenBelow   float64
	PessimistIncreaseDampenFactor  float64
	PessimistDecreaseMaxVolatility float64
	PessimistDecreaseDampenFactor  float64
}

// DefaultConstants are the production thresholds.
var DefaultConstants = Constants{
	OptimistIncreaseThreshold: 5,
	OptimistIncreaseFactor:    0.7,
	OptimistIncreaseCap:       25,
	OptimistHoldThreshold:     8,
	OptimistDecreaseFactor:    0.5,
	OptimistDecreaseCap:       15,

	OptimistIncreaseHoldBelow:     0.5,
	OptimistIncreaseDampenBelow:   0.7,
	OptimistIncreaseDampenFactor:  0.5,
	OptimistDecreaseMaxVolatility: 0.2,
	OptimistDecreaseDampenBelow:   0.6,
	OptimistDecreaseDampenFactor:  0.3,

	PessimistIncreaseThreshold:     8,
	PessimistIncreaseMinConfidence: 0.8,
	PessimistIncreaseFactor:        0.5,
	PessimistIncreaseCap:           15,
	PessimistDecreaseThreshold:     -3,
	PessimistDecreaseFactor:        0.8,
	PessimistDecreaseCap:           10,

	PessimistIncreaseHoldBelow:     0.6,
	PessimistIncreaseDampenBelow:   0.8,
	PessimistIncreaseDampenFactor:  0.6,
	PessimistDecreaseMaxVolatility: 0.15,
	PessimistDecreaseDampenFactor:  0.5,
}
