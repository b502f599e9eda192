package dispatch

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fishfarm/backend/internal/domain/shared"
	"github.com/fishfarm/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceivingStatus is the outcome of a reconciliation
type ReceivingStatus string

const (
	ReceivingStatusMatch       ReceivingStatus = "match"
	ReceivingStatusDiscrepancy ReceivingStatus = "discrepancy"
)

// IsValid checks if the status is a valid ReceivingStatus
func (s ReceivingStatus) IsValid() bool {
	return s == ReceivingStatusMatch || s == ReceivingStatusDiscrepancy
}

func (s ReceivingStatus) String() string {
	return string(s)
}

// Tolerance bounds the absolute deltas still considered a match
type Tolerance struct {
	Pieces   int64
	WeightKg decimal.Decimal
}

// Delta is the signed difference actual - expected for one size class
type Delta struct {
	Pieces   int64           `json:"pieces"`
	WeightKg decimal.Decimal `json:"weight_kg"`
}

// IsZero reports whether both deltas are zero
func (d Delta) IsZero() bool {
	return d.Pieces == 0 && d.WeightKg.IsZero()
}

// Discrepancies maps size class (as a decimal string key) to its delta.
// Only size classes with a non-zero delta are present.
type Discrepancies map[string]Delta

// Get returns the delta of a size class
func (d Discrepancies) Get(sizeClass int) (Delta, bool) {
	v, ok := d[strconv.Itoa(sizeClass)]
	return v, ok
}

// SizeClasses returns the size classes present, ascending
func (d Discrepancies) SizeClasses() []int {
	out := make([]int, 0, len(d))
	for k := range d {
		if n, err := strconv.Atoi(k); err == nil {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// ReceivedLine is what the outlet reports for one size class
type ReceivedLine struct {
	SizeClass int             `json:"size_class"`
	Pieces    int64           `json:"pieces"`
	WeightKg  decimal.Decimal `json:"weight_kg"`
}

// NormalizeReceived validates received lines and converts them to grams.
// Repeated size classes are summed.
func NormalizeReceived(lines []ReceivedLine) ([]ManifestLine, error) {
	merged := make(map[int]*ManifestLine)
	order := make([]int, 0, len(lines))
	for _, l := range lines {
		if l.SizeClass < 0 {
			return nil, shared.NewOutOfRangeError("size_class", l.SizeClass, "size class cannot be negative")
		}
		if l.Pieces < 0 {
			return nil, shared.NewValidationError("pieces", "Received pieces cannot be negative")
		}
		if l.WeightKg.IsNegative() {
			return nil, shared.NewValidationError("weight_kg", "Received weight cannot be negative")
		}
		if !valueobject.KgInRange(l.WeightKg) {
			return nil, shared.NewOutOfRangeError("weight_kg", l.WeightKg.String(),
				"received weight cannot exceed "+valueobject.MaxKg.String()+" kg")
		}
		m, ok := merged[l.SizeClass]
		if !ok {
			m = &ManifestLine{SizeClass: l.SizeClass}
			merged[l.SizeClass] = m
			order = append(order, l.SizeClass)
		}
		m.Pieces += l.Pieces
		m.WeightGrams += valueobject.KgToGrams(l.WeightKg)
	}
	sort.Ints(order)
	out := make([]ManifestLine, 0, len(order))
	for _, size := range order {
		out = append(out, *merged[size])
	}
	return out, nil
}

// Reconcile compares received against expected per size class. A size
// class missing on one side counts as zero there. The status is match when
// every |delta| is within tolerance.
func Reconcile(expected, actual []ManifestLine, tol Tolerance) (Discrepancies, ReceivingStatus) {
	type pair struct{ exp, act ManifestLine }
	sides := make(map[int]*pair)
	get := func(size int) *pair {
		p, ok := sides[size]
		if !ok {
			p = &pair{}
			sides[size] = p
		}
		return p
	}
	for _, l := range expected {
		p := get(l.SizeClass)
		p.exp.Pieces += l.Pieces
		p.exp.WeightGrams += l.WeightGrams
	}
	for _, l := range actual {
		p := get(l.SizeClass)
		p.act.Pieces += l.Pieces
		p.act.WeightGrams += l.WeightGrams
	}

	discrepancies := make(Discrepancies)
	status := ReceivingStatusMatch
	for size, p := range sides {
		d := Delta{
			Pieces:   p.act.Pieces - p.exp.Pieces,
			WeightKg: valueobject.GramsToKg(p.act.WeightGrams - p.exp.WeightGrams),
		}
		if d.IsZero() {
			continue
		}
		discrepancies[strconv.Itoa(size)] = d
		if abs(d.Pieces) > tol.Pieces || d.WeightKg.Abs().GreaterThan(tol.WeightKg) {
			status = ReceivingStatusDiscrepancy
		}
	}
	return discrepancies, status
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// OutletReceiving records what an outlet received against a dispatch
type OutletReceiving struct {
	shared.BaseEntity
	DispatchID    uuid.UUID
	ReceivedBy    string
	Actual        []ManifestLine
	Discrepancies Discrepancies
	Status        ReceivingStatus
}

// NewOutletReceiving reconciles actual against the record's manifest
func NewOutletReceiving(record *DispatchRecord, actual []ManifestLine, receivedBy string, tol Tolerance) *OutletReceiving {
	discrepancies, status := Reconcile(record.Manifest, actual, tol)
	return &OutletReceiving{
		BaseEntity:    shared.NewBaseEntity(),
		DispatchID:    record.ID,
		ReceivedBy:    strings.TrimSpace(receivedBy),
		Actual:        actual,
		Discrepancies: discrepancies,
		Status:        status,
	}
}

// ReconciliationReport is the archived form of a reconciliation
type ReconciliationReport struct {
	DispatchID        uuid.UUID       `json:"dispatch_id"`
	OrderID           uuid.UUID       `json:"order_id"`
	StorageLocationID uuid.UUID       `json:"storage_location_id"`
	Expected          []ManifestLine  `json:"expected"`
	Actual            []ManifestLine  `json:"actual"`
	Discrepancies     Discrepancies   `json:"discrepancies"`
	Status            ReceivingStatus `json:"status"`
	ReceivedBy        string          `json:"received_by"`
	ReconciledAt      time.Time       `json:"reconciled_at"`
}
