package sorting

import (
	"sort"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/shared/valueobject"
	"github.com/fishfarm/backend/internal/domain/sizing"
	"github.com/shopspring/decimal"
)

// ResultDraft is the per-size-class tally of a set of weighings
type ResultDraft struct {
	SizeClass   int
	Pieces      int64
	WeightGrams int64
}

// TallyWeighings classifies each fish weight (grams) and tallies pieces and
// total grams per size class. Gram totals are rounded half-up once per class.
// Drafts are returned in ascending size class order.
func TallyWeighings(classifier *sizing.Classifier, weightsGrams []decimal.Decimal) ([]ResultDraft, error) {
	pieces := make(map[int]int64)
	grams := make(map[int]decimal.Decimal)
	for _, w := range weightsGrams {
		class, err := classifier.Classify(w)
		if err != nil {
			return nil, err
		}
		pieces[class]++
		grams[class] = grams[class].Add(w)
		if grams[class].GreaterThan(valueobject.MaxGrams) {
			return nil, shared.NewOutOfRangeError("weights_grams", w.String(),
				"weighings of one size class cannot exceed "+valueobject.MaxKg.String()+" kg")
		}
	}

	drafts := make([]ResultDraft, 0, len(pieces))
	for class, n := range pieces {
		drafts = append(drafts, ResultDraft{
			SizeClass:   class,
			Pieces:      n,
			WeightGrams: grams[class].Round(0).IntPart(),
		})
	}
	sort.Slice(drafts, func(i, j int) bool { return drafts[i].SizeClass < drafts[j].SizeClass })
	return drafts, nil
}
