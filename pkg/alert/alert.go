package alert

import "fmt"

// Safe pH interval for potable water (inclusive bounds).
const (
	PHMin = 6.5
	PHMax = 8.5
)

// LabelUnsafe is the model label for a non-potable sample.
const LabelUnsafe = "NO POTABLE"

// Prediction is the model verdict for one sample.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // 0..1
}

// Event is the outcome of evaluating one sample. Triggered is true exactly
// when at least one rule fired; Reasons preserves rule evaluation order.
type Event struct {
	Triggered bool               `json:"triggered"`
	Reasons   []string           `json:"reasons"`
	Sample    map[string]float64 `json:"sample"`
}

// Rule inspects a prediction and sample and returns a reason string when it
// fires, or ok=false when it does not.
type Rule func(pred Prediction, sample map[string]float64) (reason string, ok bool)

// Evaluator applies an ordered rule set to samples. It performs no I/O and
// always produces a result.
type Evaluator struct {
	rules []Rule
}

// NewEvaluator returns an evaluator with the default rules: the model rule
// followed by the pH range rule.
func NewEvaluator() *Evaluator {
	return &Evaluator{rules: []Rule{ModelRule, PHRangeRule}}
}

// AddRule appends a rule after the existing ones. Rules run in insertion
// order so reason ordering stays reproducible.
func (e *Evaluator) AddRule(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate runs every rule independently and unions the reasons.
func (e *Evaluator) Evaluate(pred Prediction, sample map[string]float64) Event {
	event := Event{Sample: sample}
	for _, rule := range e.rules {
		if reason, ok := rule(pred, sample); ok {
			event.Reasons = append(event.Reasons, reason)
		}
	}
	event.Triggered = len(event.Reasons) > 0
	return event
}

// ModelRule fires when the model classified the sample as non-potable.
func ModelRule(pred Prediction, _ map[string]float64) (string, bool) {
	if pred.Label != LabelUnsafe {
		return "", false
	}
	return fmt.Sprintf("IA detectó riesgo (Confianza: %.1f%%)", pred.Confidence*100), true
}

// PHRangeRule fires when the measured pH falls outside [PHMin, PHMax].
// The bounds themselves are safe.
func PHRangeRule(_ Prediction, sample map[string]float64) (string, bool) {
	ph, ok := sample["ph"]
	if !ok {
		return "", false
	}
	if ph >= PHMin && ph <= PHMax {
		return "", false
	}
	return fmt.Sprintf("pH fuera del rango seguro 6.5-8.5 (Valor: %.1f)", ph), true
}
