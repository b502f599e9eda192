package inventory

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Draw is the amount taken from one stock row
type Draw struct {
	ResultID uuid.UUID
	BatchID  uuid.UUID
	Pieces   int64
	Grams    int64
}

// DrawdownPlan lists the draws that together satisfy a request
type DrawdownPlan struct {
	Draws  []Draw
	Pieces int64
	Grams  int64
}

// ShortfallError reports that rows cannot cover a requested drawdown
type ShortfallError struct {
	WantPieces int64
	HavePieces int64
	WantGrams  int64
	HaveGrams  int64
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("stock shortfall: want %d pieces/%dg, have %d pieces/%dg",
		e.WantPieces, e.WantGrams, e.HavePieces, e.HaveGrams)
}

// WeightMismatchError reports a declared weight the drawn rows cannot give up
// without stranding pieces at zero grams or grams at zero pieces. Any weight
// in [MinGrams, MaxGrams] fits; the range is empty when MinGrams > MaxGrams.
type WeightMismatchError struct {
	WantGrams int64
	MinGrams  int64
	MaxGrams  int64
}

func (e *WeightMismatchError) Error() string {
	if e.MinGrams > e.MaxGrams {
		return fmt.Sprintf("declared weight %dg cannot be split from the drawn rows", e.WantGrams)
	}
	return fmt.Sprintf("declared weight %dg outside %d..%dg held by the drawn rows",
		e.WantGrams, e.MinGrams, e.MaxGrams)
}

// SortFIFO orders rows oldest batch first, then by row id
func SortFIFO(rows []StockRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].BatchCreatedAt.Equal(rows[j].BatchCreatedAt) {
			return rows[i].BatchCreatedAt.Before(rows[j].BatchCreatedAt)
		}
		return rows[i].ResultID.String() < rows[j].ResultID.String()
	})
}

// PlanDrawdown takes pieces from rows in FIFO order.
//
// A row whose pieces are all taken gives up all its grams and a partly drawn
// row always keeps at least one gram, so no row is left holding pieces
// without weight or weight without pieces. FIFO leaves at most one partly
// drawn row. With a declared weight (grams != nil) that row gives the
// difference between the declared weight and the fully drawn rows, which
// must be at least one gram; otherwise PlanDrawdown fails with
// WeightMismatchError. Without a declared weight it gives grams in
// proportion to its pieces taken.
//
// rows must already be filtered to counted stock of one location and size class.
func PlanDrawdown(rows []StockRow, pieces int64, grams *int64) (*DrawdownPlan, error) {
	if pieces <= 0 {
		return nil, fmt.Errorf("drawdown pieces must be positive, got %d", pieces)
	}
	if grams != nil && *grams <= 0 {
		return nil, fmt.Errorf("drawdown grams must be positive, got %d", *grams)
	}

	ordered := make([]StockRow, len(rows))
	copy(ordered, rows)
	SortFIFO(ordered)

	var havePieces, haveGrams int64
	for _, r := range ordered {
		havePieces += r.Pieces
		haveGrams += r.WeightGrams
	}
	shortfall := &ShortfallError{WantPieces: pieces, HavePieces: havePieces, HaveGrams: haveGrams}
	if grams != nil {
		shortfall.WantGrams = *grams
	}
	if havePieces < pieces || (grams != nil && haveGrams < *grams) {
		return nil, shortfall
	}

	taken := make([]int64, len(ordered))
	remaining := pieces
	for i, r := range ordered {
		if remaining == 0 {
			break
		}
		t := min(r.Pieces, remaining)
		taken[i] = t
		remaining -= t
	}

	allocated := make([]int64, len(ordered))
	if grams != nil {
		var fixed int64
		partial := -1
		for i, r := range ordered {
			switch {
			case taken[i] == 0:
			case taken[i] == r.Pieces:
				allocated[i] = r.WeightGrams
				fixed += r.WeightGrams
			default:
				partial = i
			}
		}
		mismatch := &WeightMismatchError{WantGrams: *grams, MinGrams: fixed, MaxGrams: fixed}
		if partial >= 0 {
			mismatch.MinGrams = fixed + 1
			mismatch.MaxGrams = fixed + ordered[partial].WeightGrams - 1
		}
		if *grams < mismatch.MinGrams || *grams > mismatch.MaxGrams {
			return nil, mismatch
		}
		if partial >= 0 {
			allocated[partial] = *grams - fixed
		}
	} else {
		for i, r := range ordered {
			switch {
			case taken[i] == 0:
			case taken[i] == r.Pieces:
				allocated[i] = r.WeightGrams
			default:
				share := decimal.NewFromInt(r.WeightGrams).
					Mul(decimal.NewFromInt(taken[i])).
					Div(decimal.NewFromInt(r.Pieces)).
					Floor().IntPart()
				allocated[i] = min(max(share, 1), r.WeightGrams-1)
			}
		}
	}

	plan := &DrawdownPlan{Draws: make([]Draw, 0)}
	for i, r := range ordered {
		if taken[i] == 0 && allocated[i] == 0 {
			continue
		}
		plan.Draws = append(plan.Draws, Draw{
			ResultID: r.ResultID,
			BatchID:  r.BatchID,
			Pieces:   taken[i],
			Grams:    allocated[i],
		})
		plan.Pieces += taken[i]
		plan.Grams += allocated[i]
	}
	return plan, nil
}

// ByBatch folds draws into per-batch totals, preserving FIFO order
func (p *DrawdownPlan) ByBatch() []Draw {
	index := make(map[uuid.UUID]int)
	out := make([]Draw, 0, len(p.Draws))
	for _, d := range p.Draws {
		if i, ok := index[d.BatchID]; ok {
			out[i].Pieces += d.Pieces
			out[i].Grams += d.Grams
			continue
		}
		index[d.BatchID] = len(out)
		out = append(out, Draw{BatchID: d.BatchID, Pieces: d.Pieces, Grams: d.Grams})
	}
	return out
}

// Apply returns a copy of rows with the plan's draws subtracted
func (p *DrawdownPlan) Apply(rows []StockRow) []StockRow {
	draws := make(map[uuid.UUID]Draw, len(p.Draws))
	for _, d := range p.Draws {
		draws[d.ResultID] = d
	}
	out := make([]StockRow, len(rows))
	for i, r := range rows {
		if d, ok := draws[r.ResultID]; ok {
			r.Pieces -= d.Pieces
			r.WeightGrams -= d.Grams
		}
		out[i] = r
	}
	return out
}
