package models

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
)

// Kind classifies what a bill charges for.
type Kind string

const (
	KindPropertyTax Kind = "property_tax"
	KindWater       Kind = "water"
	KindElectricity Kind = "electricity"
	KindWaste       Kind = "waste"
	KindLicenseFee  Kind = "license_fee"
	KindOther       Kind = "other"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindPropertyTax, KindWater, KindElectricity, KindWaste, KindLicenseFee, KindOther:
		return true
	}
	return false
}

type Status string

const (
	StatusUnpaid    Status = "unpaid"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	return s == StatusUnpaid || s == StatusPaid || s == StatusCancelled
}

// CanTransitionTo allows unpaid→paid and unpaid→cancelled only.
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusUnpaid && (target == StatusPaid || target == StatusCancelled)
}

func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid bill status")
	}
	return status, nil
}

type Method string

const (
	MethodCard         Method = "card"
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
	MethodWallet       Method = "wallet"
)

func (m Method) IsValid() bool {
	switch m {
	case MethodCard, MethodBankTransfer, MethodCash, MethodWallet:
		return true
	}
	return false
}

const (
	MaxReferenceLength   = 64
	MaxDescriptionLength = 500
	// LateFeePeriod is the length of one late-fee step.
	LateFeePeriod = 30 * 24 * time.Hour

	EarliestDueYear = 2000
	LatestDueYear   = 2199
)

// ValidDueDate rejects zero and implausible due dates such as a mistyped year.
func ValidDueDate(t time.Time) bool {
	return !t.IsZero() && t.Year() >= EarliestDueYear && t.Year() <= LatestDueYear
}

// LateFeePolicy charges Rate of the amount for each started period past
// the due date, never more than Cap of the amount in total.
type LateFeePolicy struct {
	Rate float64
	Cap  float64
}

var DefaultLateFeePolicy = LateFeePolicy{Rate: 0.02, Cap: 0.25}

// Periods counts started late-fee periods at now.
func Periods(due, now time.Time) int64 {
	if !now.After(due) {
		return 0
	}
	// Sub saturates rather than wraps, so no rounding add here.
	late := now.Sub(due)
	periods := int64(late / LateFeePeriod)
	if late%LateFeePeriod != 0 {
		periods++
	}
	return max(periods, 0)
}

// Fee computes the late fee in minor units, rounded to the nearest unit.
func (p LateFeePolicy) Fee(amount int64, due, now time.Time) int64 {
	periods := Periods(due, now)
	if periods <= 0 || amount <= 0 || p.Rate <= 0 {
		return 0
	}
	if p.Cap >= 0 {
		// Past this many periods the cap always applies.
		if capped := int64(math.Ceil(p.Cap / p.Rate)); periods > capped {
			periods = capped
		}
	}
	fee := float64(amount) * p.Rate * float64(periods)
	if p.Cap >= 0 {
		fee = math.Min(fee, float64(amount)*p.Cap)
	}
	return max(int64(math.Round(fee)), 0)
}

// Bill is an amount owed by a citizen, in minor currency units.
type Bill struct {
	ID          id.BillID  `json:"id"`
	CitizenID   id.UserID  `json:"citizen_id"`
	Kind        Kind       `json:"kind"`
	Reference   string     `json:"reference"`
	Description string     `json:"description,omitempty"`
	Amount      int64      `json:"amount"`
	DueDate     time.Time  `json:"due_date"`
	Status      Status     `json:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func NewBill(billID id.BillID, citizenID id.UserID, kind Kind, reference, description string, amount int64, dueDate, now time.Time) (*Bill, error) {
	if billID.IsNil() || citizenID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "bill and citizen IDs are required")
	}
	if !kind.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "kind must be one of property_tax, water, electricity, waste, license_fee, other")
	}
	reference = strings.TrimSpace(reference)
	description = strings.TrimSpace(description)
	if reference == "" || utf8.RuneCountInString(reference) > MaxReferenceLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "reference must be 1 to 64 characters")
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "description must be at most 500 characters")
	}
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "amount must be greater than zero")
	}
	if !ValidDueDate(dueDate) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "due date is required and must fall between years 2000 and 2199")
	}
	return &Bill{
		ID:          billID,
		CitizenID:   citizenID,
		Kind:        kind,
		Reference:   reference,
		Description: description,
		Amount:      amount,
		DueDate:     dueDate,
		Status:      StatusUnpaid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsOverdue is derived: unpaid and past the due date.
func (b *Bill) IsOverdue(now time.Time) bool {
	return b.Status == StatusUnpaid && now.After(b.DueDate)
}

// AmountDue is the amount plus the late fee accrued at now.
func (b *Bill) AmountDue(policy LateFeePolicy, now time.Time) (amount, lateFee int64) {
	if b.Status != StatusUnpaid {
		return b.Amount, 0
	}
	return b.Amount, policy.Fee(b.Amount, b.DueDate, now)
}

func (b *Bill) transition(target Status, now time.Time) error {
	if !b.Status.CanTransitionTo(target) {
		return dErrors.New(dErrors.CodeInvariantViolation, "bill is "+string(b.Status))
	}
	b.Status = target
	b.UpdatedAt = now
	return nil
}

func (b *Bill) MarkPaid(now time.Time) error {
	if err := b.transition(StatusPaid, now); err != nil {
		return err
	}
	paid := now
	b.PaidAt = &paid
	return nil
}

func (b *Bill) Cancel(now time.Time) error {
	return b.transition(StatusCancelled, now)
}

// Quote is the amount a citizen would pay at AsOf.
type Quote struct {
	BillID  id.BillID `json:"bill_id"`
	Amount  int64     `json:"amount"`
	LateFee int64     `json:"late_fee"`
	Total   int64     `json:"total"`
	Periods int64     `json:"late_periods"`
	Overdue bool      `json:"overdue"`
	AsOf    time.Time `json:"as_of"`
}

func (b *Bill) Quote(policy LateFeePolicy, now time.Time) Quote {
	amount, fee := b.AmountDue(policy, now)
	q := Quote{
		BillID:  b.ID,
		Amount:  amount,
		LateFee: fee,
		Total:   amount + fee,
		Overdue: b.IsOverdue(now),
		AsOf:    now,
	}
	if q.Overdue {
		q.Periods = Periods(b.DueDate, now)
	}
	return q
}

// Payment records a settled bill.
type Payment struct {
	ID        id.PaymentID `json:"id"`
	BillID    id.BillID    `json:"bill_id"`
	CitizenID id.UserID    `json:"citizen_id"`
	Amount    int64        `json:"amount"`
	LateFee   int64        `json:"late_fee"`
	Method    Method       `json:"method"`
	Reference string       `json:"reference"`
	PaidAt    time.Time    `json:"paid_at"`
}

func (p *Payment) Total() int64 {
	return p.Amount + p.LateFee
}

// NewPayment captures the quote for b at now.
func NewPayment(paymentID id.PaymentID, b *Bill, q Quote, method Method, now time.Time) (*Payment, error) {
	if !method.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "method must be card, bank_transfer, cash or wallet")
	}
	return &Payment{
		ID:        paymentID,
		BillID:    b.ID,
		CitizenID: b.CitizenID,
		Amount:    q.Amount,
		LateFee:   q.LateFee,
		Method:    method,
		Reference: "PAY-" + strings.ToUpper(paymentID.String()[:8]),
		PaidAt:    now,
	}, nil
}
