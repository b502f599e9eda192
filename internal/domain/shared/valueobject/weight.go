package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var gramsPerKg = decimal.NewFromInt(1000)

// MaxKg bounds every kilogram amount accepted from outside. Its gram value
// leaves int64 room for sums across many rows.
var MaxKg = decimal.NewFromInt(1_000_000_000)

// MaxGrams is MaxKg in grams
var MaxGrams = MaxKg.Mul(gramsPerKg)

// KgInRange reports whether kg lies within [0, MaxKg]
func KgInRange(kg decimal.Decimal) bool {
	return !kg.IsNegative() && kg.LessThanOrEqual(MaxKg)
}

// Weight is an immutable mass held as whole grams.
// Kilograms only appear when a Weight is presented or parsed.
type Weight struct {
	grams int64
}

// NewWeightFromGrams creates a Weight from whole grams
func NewWeightFromGrams(grams int64) (Weight, error) {
	if grams < 0 {
		return Weight{}, errors.New("weight cannot be negative")
	}
	return Weight{grams: grams}, nil
}

// NewWeightFromKg creates a Weight from kilograms, rounding half-up to the gram
func NewWeightFromKg(kg decimal.Decimal) (Weight, error) {
	if kg.IsNegative() {
		return Weight{}, errors.New("weight cannot be negative")
	}
	if kg.GreaterThan(MaxKg) {
		return Weight{}, fmt.Errorf("weight cannot exceed %s kg", MaxKg)
	}
	return Weight{grams: kg.Mul(gramsPerKg).Round(0).IntPart()}, nil
}

// NewWeightFromKgString parses a kilogram amount such as "12.5"
func NewWeightFromKgString(kg string) (Weight, error) {
	d, err := decimal.NewFromString(kg)
	if err != nil {
		return Weight{}, fmt.Errorf("invalid weight string: %w", err)
	}
	return NewWeightFromKg(d)
}

// MustNewWeightFromGrams creates a Weight and panics on error
func MustNewWeightFromGrams(grams int64) Weight {
	w, err := NewWeightFromGrams(grams)
	if err != nil {
		panic(err)
	}
	return w
}

// ZeroWeight returns an empty weight
func ZeroWeight() Weight {
	return Weight{}
}

// Grams returns the weight in whole grams
func (w Weight) Grams() int64 {
	return w.grams
}

// Kg returns the weight in kilograms
func (w Weight) Kg() decimal.Decimal {
	return GramsToKg(w.grams)
}

func (w Weight) IsZero() bool {
	return w.grams == 0
}

// Add returns the sum of both weights
func (w Weight) Add(other Weight) Weight {
	return Weight{grams: w.grams + other.grams}
}

// Subtract returns the difference, failing if the result would be negative
func (w Weight) Subtract(other Weight) (Weight, error) {
	if other.grams > w.grams {
		return Weight{}, fmt.Errorf("cannot subtract %s from %s", other, w)
	}
	return Weight{grams: w.grams - other.grams}, nil
}

// GreaterThanOrEqual returns true if w >= other
func (w Weight) GreaterThanOrEqual(other Weight) bool {
	return w.grams >= other.grams
}

// String renders the weight in kilograms
func (w Weight) String() string {
	return w.Kg().String() + " kg"
}

// MarshalJSON renders the weight as a kilogram number
func (w Weight) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Kg())
}

// UnmarshalJSON parses a kilogram number
func (w *Weight) UnmarshalJSON(data []byte) error {
	var kg decimal.Decimal
	if err := json.Unmarshal(data, &kg); err != nil {
		return err
	}
	parsed, err := NewWeightFromKg(kg)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// GramsToKg converts whole grams to kilograms
func GramsToKg(grams int64) decimal.Decimal {
	return decimal.NewFromInt(grams).Div(gramsPerKg)
}

// KgToGrams converts kilograms to whole grams, rounding half-up.
// kg must satisfy KgInRange.
func KgToGrams(kg decimal.Decimal) int64 {
	return kg.Mul(gramsPerKg).Round(0).IntPart()
}
