// Package sizing buckets individual fish by weight into ordinal size classes.
package sizing

import (
	"fmt"
	"sort"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultUpperBounds are the inclusive upper bounds, in grams, of every
// closed size class. The class after the last bound is open-ended.
var DefaultUpperBounds = []decimal.Decimal{
	decimal.RequireFromString("99.99"),
	decimal.RequireFromString("199.99"),
	decimal.RequireFromString("299.99"),
	decimal.RequireFromString("499.99"),
	decimal.RequireFromString("749.99"),
	decimal.RequireFromString("999.99"),
	decimal.RequireFromString("1499.99"),
	decimal.RequireFromString("1999.99"),
}

// Band describes one size class. Lower is exclusive (absent for class 0,
// which starts at 0 inclusive); Upper is inclusive (absent for the open top class).
type Band struct {
	Class int              `json:"class"`
	Lower *decimal.Decimal `json:"lower_grams_exclusive,omitempty"`
	Upper *decimal.Decimal `json:"upper_grams_inclusive,omitempty"`
	Label string           `json:"label"`
}

// Classifier maps a weight in grams to a size class
type Classifier struct {
	upper []decimal.Decimal
}

// NewClassifier builds a classifier from strictly ascending, non-negative
// inclusive upper bounds.
func NewClassifier(upperBounds []decimal.Decimal) (*Classifier, error) {
	if len(upperBounds) == 0 {
		return nil, shared.NewValidationError("band_upper_bounds", "at least one size band bound is required")
	}
	bounds := make([]decimal.Decimal, len(upperBounds))
	for i, b := range upperBounds {
		if b.IsNegative() {
			return nil, shared.NewValidationError("band_upper_bounds", fmt.Sprintf("bound %s is negative", b))
		}
		if i > 0 && !b.GreaterThan(upperBounds[i-1]) {
			return nil, shared.NewValidationError("band_upper_bounds",
				fmt.Sprintf("bounds must be strictly ascending: %s after %s", b, upperBounds[i-1]))
		}
		bounds[i] = b
	}
	return &Classifier{upper: bounds}, nil
}

// NewDefaultClassifier returns a classifier over DefaultUpperBounds
func NewDefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultUpperBounds)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseUpperBounds parses textual bounds such as "99.99"
func ParseUpperBounds(values []string) ([]decimal.Decimal, error) {
	bounds := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid size band bound %q: %w", v, err)
		}
		bounds = append(bounds, d)
	}
	return bounds, nil
}

// Classify returns the size class for a single fish weighing weightGrams.
// Class k covers (upper[k-1], upper[k]]; class 0 starts at 0.
func (c *Classifier) Classify(weightGrams decimal.Decimal) (int, error) {
	if weightGrams.IsNegative() {
		return 0, shared.NewOutOfRangeError("weight_grams", weightGrams.String(), "weight cannot be negative")
	}
	// first bound >= weight
	return sort.Search(len(c.upper), func(i int) bool {
		return c.upper[i].GreaterThanOrEqual(weightGrams)
	}), nil
}

// ClassCount returns the number of size classes including the open top class
func (c *Classifier) ClassCount() int {
	return len(c.upper) + 1
}

// IsValidClass reports whether class is produced by this classifier
func (c *Classifier) IsValidClass(class int) bool {
	return class >= 0 && class < c.ClassCount()
}

// Bands returns the full band table
func (c *Classifier) Bands() []Band {
	bands := make([]Band, 0, c.ClassCount())
	for i := 0; i < c.ClassCount(); i++ {
		b := Band{Class: i}
		if i > 0 {
			lo := c.upper[i-1]
			b.Lower = &lo
		}
		if i < len(c.upper) {
			hi := c.upper[i]
			b.Upper = &hi
		}
		b.Label = bandLabel(b)
		bands = append(bands, b)
	}
	return bands
}

func bandLabel(b Band) string {
	switch {
	case b.Lower == nil && b.Upper != nil:
		return fmt.Sprintf("0-%sg", b.Upper)
	case b.Upper == nil && b.Lower != nil:
		return fmt.Sprintf(">%sg", b.Lower)
	case b.Lower != nil && b.Upper != nil:
		return fmt.Sprintf(">%s-%sg", b.Lower, b.Upper)
	}
	return "any"
}
