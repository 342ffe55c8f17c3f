// Package suppression resolves "silence the story" gambles.
//
// Every resolver is a pure roll against an injected chance.Source and
// returns an Outcome describing what happened and what it costs; the
// orchestrator owns applying the outcome to protests, outlets, and the
// opinion counters. A failed gamble is a valid modeled result, not an
// error.
package suppression

import (
	"github.com/danverh/panopticon/internal/chance"
	"github.com/danverh/panopticon/internal/metrics"
)

// gambleSuccess is the shared success rate for violent and press
// suppression. Legal suppression does not gamble.
const gambleSuccess = 0.60

// Outcome is the result of one suppression attempt.
type Outcome struct {
	Success          bool   `json:"success"`
	Arrests          int    `json:"arrests"`
	Casualties       int    `json:"casualties"`
	AwarenessCost    int    `json:"awarenessCost"`
	AngerCost        int    `json:"angerCost"`
	AgitatorExposed  bool   `json:"agitatorExposed"`
	CredibilityBoost int    `json:"credibilityBoost"` // press failure only
	Narrative        string `json:"narrative"`
}

// ResolveLegal disperses a protest by declaring it illegal. It always
// succeeds, but openly overriding assembly rights has a fixed cost.
func ResolveLegal(src chance.Source) Outcome {
	metrics.SuppressionGamblesTotal.WithLabelValues("legal", "success").Inc()
	return Outcome{
		Success:       true,
		Arrests:       chance.IntBetween(src, 5, 15),
		AwarenessCost: 8,
		AngerCost:     6,
		Narrative:     "The assembly was declared illegal and dispersed by order. Organizers were taken into custody.",
	}
}

// ResolveViolent uses a previously planted agitator to start violence
// and blame the protesters. On the 60% success the crackdown reads as a
// response to unrest and costs little; on failure the agitator is
// exposed, the same violence occurs, and the state is caught
// manufacturing the disorder it is punishing.
func ResolveViolent(src chance.Source) Outcome {
	if chance.Bernoulli(src, gambleSuccess) {
		metrics.SuppressionGamblesTotal.WithLabelValues("violent", "success").Inc()
		return Outcome{
			Success:       true,
			Casualties:    chance.IntBetween(src, 3, 10),
			Arrests:       chance.IntBetween(src, 20, 50),
			AwarenessCost: 5,
			AngerCost:     3,
			Narrative:     "Violence erupted within the crowd and security forces restored order. Coverage blames the protesters.",
		}
	}
	metrics.SuppressionGamblesTotal.WithLabelValues("violent", "failure").Inc()
	return Outcome{
		Success:         false,
		Casualties:      chance.IntBetween(src, 5, 15),
		Arrests:         chance.IntBetween(src, 10, 30),
		AwarenessCost:   25,
		AngerCost:       30,
		AgitatorExposed: true,
		Narrative:       "The planted agitator was identified on camera. The crackdown proceeded anyway, and the world watched the state punish unrest it created.",
	}
}

// ResolvePress attempts to silence an outlet (ban it or pressure it to
// fire a reporter). Success carries a modest cost; failure is the
// Streisand effect, amplifying the suppressed story and lifting the
// outlet's credibility.
func ResolvePress(src chance.Source) Outcome {
	if chance.Bernoulli(src, gambleSuccess) {
		metrics.SuppressionGamblesTotal.WithLabelValues("press", "success").Inc()
		return Outcome{
			Success:       true,
			AwarenessCost: 4,
			AngerCost:     2,
			Narrative:     "The outlet went quiet. A short statement cites licensing irregularities.",
		}
	}
	metrics.SuppressionGamblesTotal.WithLabelValues("press", "failure").Inc()
	return Outcome{
		Success:          false,
		AwarenessCost:    20,
		AngerCost:        15,
		CredibilityBoost: 10,
		Narrative:        "The suppression attempt leaked. The story it targeted is now running worldwide, and the outlet's standing has never been higher.",
	}
}
