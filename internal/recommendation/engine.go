// Package recommendation turns forecasts into price actions.
//
// Each scenario is an ordered list of rules evaluated top to bottom; the first
// matching rule produces a draft recommendation which a scenario-specific
// correction stage may then only shrink or downgrade.
package recommendation

import (
	"fmt"
	"math"
	"strings"

	"github.com/irfndi/pricecast-go/internal/utils"
)

// Scenario is the risk posture applied to a forecast.
type Scenario string

const (
	ScenarioOptimist  Scenario = "optimist"
	ScenarioPessimist Scenario = "pessimist"
)

// ParseScenario maps a request value to a Scenario.
func ParseScenario(s string) (Scenario, error) {
	switch Scenario(strings.ToLower(strings.TrimSpace(s))) {
	case ScenarioOptimist:
		return ScenarioOptimist, nil
	case ScenarioPessimist:
		return ScenarioPessimist, nil
	default:
		return "", utils.NewValidationErrorf("invalid scenario %q: must be optimist or pessimist", s)
	}
}

// Action is the recommended price move.
type Action string

const (
	ActionIncrease Action = "increase"
	ActionDecrease Action = "decrease"
	ActionHold     Action = "hold"
)

// Input is everything a single recommendation depends on.
type Input struct {
	CurrentPrice float64
	Forecast7D   float64
	Forecast30D  float64
	Confidence   float64
	Volatility   float64
}

// Recommendation is the engine's output.
type Recommendation struct {
	Action     Action   `json:"price_action"`
	Percentage float64  `json:"percentage"`
	Timeframe  string   `json:"timeframe"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Scenario   Scenario `json:"scenario"`
}

// Engine evaluates the rule tables. It holds no state between calls.
type Engine struct {
	c         Constants
	optimist  []rule
	pessimist []rule
}

// NewEngine creates an engine with the default constants.
func NewEngine() *Engine {
	return NewEngineWithConstants(DefaultConstants)
}

// NewEngineWithConstants creates an engine with custom thresholds and caps.
func NewEngineWithConstants(c Constants) *Engine {
	return &Engine{
		c:         c,
		optimist:  optimistRules(c),
		pessimist: pessimistRules(c),
	}
}

// Constants returns the thresholds the engine was built with.
func (e *Engine) Constants() Constants {
	return e.c
}

// Generate produces a recommendation for the given scenario.
func (e *Engine) Generate(in Input, scenario Scenario) Recommendation {
	if in.CurrentPrice <= 0 {
		return Recommendation{
			Action:     ActionHold,
			Timeframe:  TimeframeObserve,
			Confidence: in.Confidence,
			Reasoning:  "Current price is not positive, no change can be computed. Holding.",
			Scenario:   scenario,
		}
	}

	m := moves{
		change7d:  changePct(in.Forecast7D, in.CurrentPrice),
		change30d: changePct(in.Forecast30D, in.CurrentPrice),
	}

	var rec Recommendation
	switch scenario {
	case ScenarioPessimist:
		rec = evaluate(e.pessimist, in, m)
		e.correctPessimist(&rec, in)
	default:
		scenario = ScenarioOptimist
		rec = evaluate(e.optimist, in, m)
		e.correctOptimist(&rec, in)
	}

	rec.Confidence = in.Confidence
	rec.Scenario = scenario
	return rec
}

// Fallback is returned when there is no history to forecast from.
func Fallback(scenario Scenario) Recommendation {
	return Recommendation{
		Action:     ActionHold,
		Timeframe:  TimeframeObserve,
		Confidence: FallbackConfidence,
		Reasoning:  "Not enough price history for a forecast. Keeping the current price.",
		Scenario:   scenario,
	}
}

type moves struct {
	change7d  float64
	change30d float64
}

type rule struct {
	name    string
	matches func(in Input, m moves) bool
	build   func(in Input, m moves) Recommendation
}

func evaluate(rules []rule, in Input, m moves) Recommendation {
	for _, r := range rules {
		if r.matches(in, m) {
			return r.build(in, m)
		}
	}
	// every table ends in an always-matching rule
	panic("recommendation: no rule matched")
}

func always(Input, moves) bool { return true }

func optimistRules(c Constants) []rule {
	return []rule{
		{
			name:    "short-term growth",
			matches: func(_ Input, m moves) bool { return m.change7d > c.OptimistIncreaseThreshold },
			build: func(_ Input, m moves) Recommendation {
				pct := math.Min(c.OptimistIncreaseCap, math.Abs(m.change7d)*c.OptimistIncreaseFactor)
				return Recommendation{
					Action:     ActionIncrease,
					Percentage: pct,
					Timeframe:  TimeframeOneToThreeDays,
					Reasoning: fmt.Sprintf(
						"Forecast shows %.1f%% growth over 7 days. Raising the price by %.1f%% to maximize profit.",
						m.change7d, pct),
				}
			},
		},
		{
			name:    "long-term growth",
			matches: func(_ Input, m moves) bool { return m.change30d > c.OptimistHoldThreshold },
			build: func(_ Input, m moves) Recommendation {
				return Recommendation{
					Action:    ActionHold,
					Timeframe: TimeframeSevenToFourteenDays,
					Reasoning: fmt.Sprintf(
						"30-day forecast shows %.1f%% growth. Waiting for a stronger rise over the next 7-14 days.",
						m.change30d),
				}
			},
		},
		{
			name:    "otherwise cut",
			matches: always,
			build: func(in Input, _ moves) Recommendation {
				drop := math.Abs(in.CurrentPrice-in.Forecast7D) * 100 / in.CurrentPrice
				pct := math.Min(c.OptimistDecreaseCap, drop*c.OptimistDecreaseFactor)
				return Recommendation{
					Action:     ActionDecrease,
					Percentage: pct,
					Timeframe:  TimeframeNow,
					Reasoning: fmt.Sprintf(
						"Price may fall. Cutting it by %.1f%% now to stay competitive.", pct),
				}
			},
		},
	}
}

func pessimistRules(c Constants) []rule {
	return []rule{
		{
			name: "confident growth",
			matches: func(in Input, m moves) bool {
				return m.change7d > c.PessimistIncreaseThreshold && in.Confidence > c.PessimistIncreaseMinConfidence
			},
			build: func(_ Input, m moves) Recommendation {
				pct := math.Min(c.PessimistIncreaseCap, math.Abs(m.change7d)*c.PessimistIncreaseFactor)
				return Recommendation{
					Action:     ActionIncrease,
					Percentage: pct,
					Timeframe:  TimeframeThreeToSevenDays,
					Reasoning: fmt.Sprintf(
						"Confident growth of %.1f%%. Carefully raising the price by %.1f%% over 3-7 days.",
						m.change7d, pct),
				}
			},
		},
		{
			name:    "expected drop",
			matches: func(_ Input, m moves) bool { return m.change7d < c.PessimistDecreaseThreshold },
			build: func(_ Input, m moves) Recommendation {
				drop := math.Abs(m.change7d)
				pct := math.Min(c.PessimistDecreaseCap, drop*c.PessimistDecreaseFactor)
				return Recommendation{
					Action:     ActionDecrease,
					Percentage: pct,
					Timeframe:  TimeframeImmediately,
					Reasoning: fmt.Sprintf(
						"Forecast shows a %.1f%% drop. Cutting the price by %.1f%% immediately to limit risk.",
						drop, pct),
				}
			},
		},
		{
			name:    "otherwise observe",
			matches: always,
			build: func(Input, moves) Recommendation {
				return Recommendation{
					Action:    ActionHold,
					Timeframe: TimeframeObserve,
					Reasoning: "Not enough evidence for a confident move. Keeping the current price and observing for 7 days.",
				}
			},
		},
	}
}

func (e *Engine) correctOptimist(rec *Recommendation, in Input) {
	c := e.c
	switch rec.Action {
	case ActionIncrease:
		if in.Confidence < c.OptimistIncreaseHoldBelow {
			rec.Action = ActionHold
			rec.Percentage = 0
			rec.Reasoning += " (low confidence, holding position)"
		} else if in.Confidence < c.OptimistIncreaseDampenBelow {
			rec.Percentage *= c.OptimistIncreaseDampenFactor
			rec.Timeframe += TimeframeNeedsConfirmation
		}
	case ActionDecrease:
		if in.Volatility > c.OptimistDecreaseMaxVolatility {
			rec.Action = ActionHold
			rec.Percentage = 0
			rec.Reasoning = "High volatility. Holding position until prices stabilize."
		} else if in.Confidence < c.OptimistDecreaseDampenBelow {
			rec.Percentage *= c.OptimistDecreaseDampenFactor
			rec.Timeframe = TimeframeAfterAnalysis
		}
	}
}

func (e *Engine) correctPessimist(rec *Recommendation, in Input) {
	c := e.c
	switch rec.Action {
	case ActionIncrease:
		if in.Confidence < c.PessimistIncreaseHoldBelow {
			rec.Action = ActionHold
			rec.Percentage = 0
			rec.Reasoning = "Not confident enough to raise the price. Holding."
		} else if in.Confidence < c.PessimistIncreaseDampenBelow {
			rec.Percentage *= c.PessimistIncreaseDampenFactor
		}
	case ActionDecrease:
		if in.Volatility > c.PessimistDecreaseMaxVolatility {
			rec.Percentage *= c.PessimistDecreaseDampenFactor
			rec.Reasoning += " (adjusted for volatility)"
		}
	}
}

func changePct(forecast, current float64) float64 {
	return (forecast - current) * 100 / current
}
