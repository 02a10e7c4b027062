package progression

import (
	"math"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultTooLargeJumpFraction = 0.10
	DefaultPlateauThreshold     = 4
	DefaultDeloadFactor         = 0.9
)

// DefaultCeilingStages are the expanded rep ceilings, in order.
var DefaultCeilingStages = []int{15, 20}

// Policy holds the tunable thresholds of the triple-progression policy.
type Policy struct {
	// A weight jump larger than this fraction of the last successful
	// weight expands the rep ceiling instead of adding weight.
	TooLargeJumpFraction float64 `validate:"gt=0,lt=1"`
	// Consecutive non-successes at which a deload is suggested.
	PlateauThreshold int `validate:"gt=0"`
	// Multiplier applied to the working weight on deload.
	DeloadFactor float64 `validate:"gt=0,lt=1"`
	// Expanded ceilings beyond the exercise's rep_range_max, strictly ascending.
	CeilingStages []int `validate:"omitempty,ascending,dive,gt=0"`
}

var policyValidator = newPolicyValidator()

func newPolicyValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("ascending", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		for i := 1; i < f.Len(); i++ {
			if f.Index(i).Int() <= f.Index(i-1).Int() {
				return false
			}
		}
		return true
	})
	return v
}

// Validate checks every threshold is in range and the ceiling stages ascend.
func (p Policy) Validate() error {
	return policyValidator.Struct(p)
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		TooLargeJumpFraction: DefaultTooLargeJumpFraction,
		PlateauThreshold:     DefaultPlateauThreshold,
		DeloadFactor:         DefaultDeloadFactor,
		CeilingStages:        append([]int(nil), DefaultCeilingStages...),
	}
}

// withDefaults fills zero values so a partially configured Policy behaves.
func (p Policy) withDefaults() Policy {
	if p.TooLargeJumpFraction <= 0 {
		p.TooLargeJumpFraction = DefaultTooLargeJumpFraction
	}
	if p.PlateauThreshold <= 0 {
		p.PlateauThreshold = DefaultPlateauThreshold
	}
	if p.DeloadFactor <= 0 {
		p.DeloadFactor = DefaultDeloadFactor
	}
	if len(p.CeilingStages) == 0 {
		p.CeilingStages = DefaultCeilingStages
	}
	return p
}

// nextCeiling returns the first stage above current, or false when current
// is already the terminal ceiling.
func (p Policy) nextCeiling(current int) (int, bool) {
	for _, stage := range p.CeilingStages {
		if stage > current {
			return stage, true
		}
	}
	return current, false
}

// jumpTooLarge reports whether adding the configured jump to base would be
// more than the allowed fraction of base.
func (p Policy) jumpTooLarge(base, jump float64) bool {
	return jump > p.TooLargeJumpFraction*base
}

func (p Policy) deloadWeight(base float64) float64 {
	return math.Round(base * p.DeloadFactor)
}

func weightsEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
