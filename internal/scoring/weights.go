// Package scoring computes batch-relative priority scores for canonical
// tasks under a named weighting strategy.
package scoring

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Strategy names a weight profile.
type Strategy string

const (
	Smart    Strategy = "smart"
	Fastest  Strategy = "fastest"
	Impact   Strategy = "impact"
	Deadline Strategy = "deadline"
)

// Weights is the per-factor weight vector. Keys missing from a decoded
// payload are zero.
type Weights struct {
	Urgency    float64 `json:"urgency" mapstructure:"urgency" toml:"urgency" yaml:"urgency" validate:"gte=0,lte=1"`
	Importance float64 `json:"importance" mapstructure:"importance" toml:"importance" yaml:"importance" validate:"gte=0,lte=1"`
	Effort     float64 `json:"effort" mapstructure:"effort" toml:"effort" yaml:"effort" validate:"gte=0,lte=1"`
	Dependency float64 `json:"dependency" mapstructure:"dependency" toml:"dependency" yaml:"dependency" validate:"gte=0,lte=1"`
}

// DefaultWeights returns the smart profile.
func DefaultWeights() Weights {
	return Weights{Urgency: 0.40, Importance: 0.30, Effort: 0.15, Dependency: 0.15}
}

var profiles = map[Strategy]Weights{
	Fastest:  {Urgency: 0.10, Importance: 0.20, Effort: 0.60, Dependency: 0.10},
	Impact:   {Urgency: 0.15, Importance: 0.70, Effort: 0.05, Dependency: 0.10},
	Deadline: {Urgency: 0.70, Importance: 0.15, Effort: 0.05, Dependency: 0.10},
}

// Strategies lists the known strategies, smart first.
func Strategies() []Strategy {
	return []Strategy{Smart, Fastest, Impact, Deadline}
}

// Known reports whether s names a built-in profile.
func (s Strategy) Known() bool {
	return s == Smart || profiles[s] != (Weights{})
}

// WeightsFor resolves the weight vector for a strategy. Custom weights are
// honoured only under smart (or an empty name). Any other unrecognized name
// falls back to the default smart weights and ignores custom.
func WeightsFor(s Strategy, custom *Weights) Weights {
	if w, ok := profiles[s]; ok {
		return w
	}
	if (s == Smart || s == "") && custom != nil {
		return *custom
	}
	return DefaultWeights()
}

// Sum returns the total of all weights rounded to 4 places. Built-in
// profiles sum to 1; custom weights need not.
func (w Weights) Sum() float64 {
	return round(w.Urgency+w.Importance+w.Effort+w.Dependency, 4)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that every weight lies in [0, 1].
func (w Weights) Validate() error {
	if err := validate.Struct(w); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}
	return nil
}
