package payment

import (
	"fmt"
	"time"

	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
	"github.com/police-portal/platform/internal/suspect"
)

// Kind distinguishes the two payable obligations
type Kind string

const (
	KindBail Kind = "bail"
	KindFine Kind = "fine"
)

// Status tracks a payment through the external gateway
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// BailAmountByDegree prices bail by the gravity of the wanted record
var BailAmountByDegree = map[int]int64{
	2: 50_000_000,
	3: 150_000_000,
}

// FineAmountByDegree prices fines; only the gravest non-critical
// degree is finable
var FineAmountByDegree = map[int]int64{
	3: 30_000_000,
}

// Payment is a bail or fine request lodged with the gateway
type Payment struct {
	ID             types.ID  `json:"id"`
	PersonID       types.ID  `json:"person_id"`
	WantedRecordID types.ID  `json:"wanted_record_id"`
	Kind           Kind      `json:"kind"`
	Amount         int64     `json:"amount"`
	Status         Status    `json:"status"`
	GatewayRef     string    `json:"gateway_ref,omitempty"`
	CreatedBy      types.ID  `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Eligible picks the wanted record a payment of the given kind may be
// lodged against. Bail applies to degree 2 and 3 records while the
// person is wanted or arrested; a fine only to a degree 3 record after
// arrest. Critical records admit neither.
func Eligible(records []*suspect.WantedRecord, kind Kind) (*suspect.WantedRecord, int64, error) {
	var best *suspect.WantedRecord
	var amount int64

	for _, rec := range records {
		if rec.Status == suspect.WantedStatusCleared {
			continue
		}

		var a int64
		var ok bool
		switch kind {
		case KindBail:
			a, ok = BailAmountByDegree[rec.Degree]
		case KindFine:
			if rec.Status != suspect.WantedStatusArrested {
				continue
			}
			a, ok = FineAmountByDegree[rec.Degree]
		default:
			return nil, 0, errors.Validation(fmt.Sprintf("unknown payment kind %q", kind), nil)
		}

		if ok && (best == nil || rec.Degree > best.Degree) {
			best = rec
			amount = a
		}
	}

	if best == nil {
		return nil, 0, errors.InvalidState(fmt.Sprintf("the person has no wanted record eligible for %s", kind))
	}
	return best, amount, nil
}

// NewPayment builds a pending payment against a wanted record
func NewPayment(personID types.ID, rec *suspect.WantedRecord, kind Kind, amount int64, createdBy types.ID) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:             types.NewID(),
		PersonID:       personID,
		WantedRecordID: rec.ID,
		Kind:           kind,
		Amount:         amount,
		Status:         StatusPending,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// MarkConfirmed records gateway acceptance
func (p *Payment) MarkConfirmed(ref string) {
	p.Status = StatusConfirmed
	p.GatewayRef = ref
	p.UpdatedAt = time.Now().UTC()
}

// MarkFailed records gateway refusal
func (p *Payment) MarkFailed() {
	p.Status = StatusFailed
	p.UpdatedAt = time.Now().UTC()
}
