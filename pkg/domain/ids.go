// Package domain holds identifier and role primitives shared by every module.
//
// Identifiers are distinct named types over uuid.UUID so that a BillID can
// never be passed where a ComplaintID is expected. Construct them from
// external input with the Parse functions; those reject empty, malformed and
// nil UUIDs with CodeInvalidInput.
package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"

	dErrors "civic/pkg/domain-errors"
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return u, nil
}

// Nil identifiers are stored as SQL NULL so optional references need no
// wrapper type.
func valueUUID(u uuid.UUID) (driver.Value, error) {
	if u == uuid.Nil {
		return nil, nil
	}
	return u.String(), nil
}

func scanUUID(src any) (uuid.UUID, error) {
	var u uuid.UUID
	if src == nil {
		return u, nil
	}
	err := u.Scan(src)
	return u, err
}

func unmarshalUUID(kind string, text []byte) (uuid.UUID, error) {
	if len(text) == 0 {
		return uuid.Nil, nil
	}
	return parseUUID(kind, string(text))
}

// UserID identifies a portal user.
type UserID uuid.UUID

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// ParseUserID validates external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user id", s)
	return UserID(u), err
}

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *UserID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("user id", text)
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id UserID) Value() (driver.Value, error) { return valueUUID(uuid.UUID(id)) }

func (id *UserID) Scan(src any) error {
	u, err := scanUUID(src)
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

// ComplaintID identifies a citizen complaint.
type ComplaintID uuid.UUID

// NewComplaintID returns a fresh random ComplaintID.
func NewComplaintID() ComplaintID { return ComplaintID(uuid.New()) }

// ParseComplaintID validates external input.
func ParseComplaintID(s string) (ComplaintID, error) {
	u, err := parseUUID("complaint id", s)
	return ComplaintID(u), err
}

func (id ComplaintID) String() string { return uuid.UUID(id).String() }
func (id ComplaintID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id ComplaintID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *ComplaintID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("complaint id", text)
	if err != nil {
		return err
	}
	*id = ComplaintID(u)
	return nil
}

func (id ComplaintID) Value() (driver.Value, error) { return valueUUID(uuid.UUID(id)) }

func (id *ComplaintID) Scan(src any) error {
	u, err := scanUUID(src)
	if err != nil {
		return err
	}
	*id = ComplaintID(u)
	return nil
}

// CommentID identifies a complaint comment.
type CommentID uuid.UUID

// NewCommentID returns a fresh random CommentID.
func NewCommentID() CommentID { return CommentID(uuid.New()) }

// ParseCommentID validates external input.
func ParseCommentID(s string) (CommentID, error) {
	u, err := parseUUID("comment id", s)
	return CommentID(u), err
}

func (id CommentID) String() string { return uuid.UUID(id).String() }
func (id CommentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id CommentID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *CommentID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("comment id", text)
	if err != nil {
		return err
	}
	*id = CommentID(u)
	return nil
}

func (id CommentID) Value() (driver.Value, error) { return valueUUID(uuid.UUID(id)) }

func (id *CommentID) Scan(src any) error {
	u, err := scanUUID(src)
	if err != nil {
		return err
	}
	*id = CommentID(u)
	return nil
}

// BillID identifies a bill.
type BillID uuid.UUID

// NewBillID returns a fresh random BillID.
func NewBillID() BillID { return BillID(uuid.New()) }

// ParseBillID validates external input.
func ParseBillID(s string) (BillID, error) {
	u, err := parseUUID("bill id", s)
	return BillID(u), err
}

func (id BillID) String() string { return uuid.UUID(id).String() }
func (id BillID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id BillID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *BillID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("bill id", text)
	if err != nil {
		return err
	}
	*id = BillID(u)
	return nil
}

func (id BillID) Value() (driver.Value, error) { return valueUUID(uuid.UUID(id)) }

func (id *BillID) Scan(src any) error {
	u, err := scanUUID(src)
	if err != nil {
		return err
	}
	*id = BillID(u)
	return nil
}

// PaymentID identifies a bill payment.
type PaymentID uuid.UUID

// NewPaymentID returns a fresh random PaymentID.
func NewPaymentID() PaymentID { return PaymentID(uuid.New()) }

// ParsePaymentID validates external input.
func ParsePaymentID(s string) (PaymentID, error) {
	u, err := parseUUID("payment id", s)
	return PaymentID(u), err
}

func (id PaymentID) String() string { return uuid.UUID(id).String() }
func (id PaymentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id PaymentID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *PaymentID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("payment id", text)
	if err != nil {
		return err
	}
	*id = PaymentID(u)
	return nil
}

func (id PaymentID) Value() (driver.Value, error) { return valueUUID(uuid.UUID(id)) }

func (id *PaymentID) Scan(src any) error {
	u, err := scanUUID(src)
	if err != nil {
		return err
	}
	*id = PaymentID(u)
	return nil
}

// NoticeID identifies a public notice.
type NoticeID uuid.UUID

// NewNoticeID returns a fresh random NoticeID.
func NewNoticeID() NoticeID { return NoticeID(uuid.New()) }

// ParseNoticeID validates external input.
func ParseNoticeID(s string) (NoticeID, error) {
	u, err := parseUUID("notice id", s)
	return NoticeID(u), err
}

func (id NoticeID) String() string { return uuid.UUID(id).String() }
func (id NoticeID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id NoticeID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *NoticeID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("notice id", text)
	if err != nil {
		return err
	}
	*id = NoticeID(u)
	return nil
}

func (id NoticeID) Value() (driver.Value, error) { return valueUUID(uuid.UUID(id)) }

func (id *NoticeID) Scan(src any) error {
	u, err := scanUUID(src)
	if err != nil {
		return err
	}
	*id = NoticeID(u)
	return nil
}

// CycleID identifies a participatory budgeting cycle.
type CycleID uuid.UUID

// NewCycleID returns a fresh random CycleID.
func NewCycleID() CycleID { return CycleID(uuid.New()) }

// ParseCycleID validates external input.
func ParseCycleID(s string) (CycleID, error) {
	u, err := parseUUID("budget cycle id", s)
	return CycleID(u), err
}

func (id CycleID) String() string { return uuid.UUID(id).String() }
func (id CycleID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id CycleID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *CycleID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("budget cycle id", text)
	if err != nil {
		return err
	}
	*id = CycleID(u)
	return nil
}

func (id CycleID) Value() (driver.Value, error) { return valueUUID(uuid.UUID(id)) }

func (id *CycleID) Scan(src any) error {
	u, err := scanUUID(src)
	if err != nil {
		return err
	}
	*id = CycleID(u)
	return nil
}

// ProposalID identifies a budget proposal.
type ProposalID uuid.UUID

// NewProposalID returns a fresh random ProposalID.
func NewProposalID() ProposalID { return ProposalID(uuid.New()) }

// ParseProposalID validates external input.
func ParseProposalID(s string) (ProposalID, error) {
	u, err := parseUUID("proposal id", s)
	return ProposalID(u), err
}

func (id ProposalID) String() string { return uuid.UUID(id).String() }
func (id ProposalID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id ProposalID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *ProposalID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("proposal id", text)
	if err != nil {
		return err
	}
	*id = ProposalID(u)
	return nil
}

func (id ProposalID) Value() (driver.Value, error) { return valueUUID(uuid.UUID(id)) }

func (id *ProposalID) Scan(src any) error {
	u, err := scanUUID(src)
	if err != nil {
		return err
	}
	*id = ProposalID(u)
	return nil
}

// WardID identifies a ward.
type WardID uuid.UUID

// NewWardID returns a fresh random WardID.
func NewWardID() WardID { return WardID(uuid.New()) }

// ParseWardID validates external input.
func ParseWardID(s string) (WardID, error) {
	u, err := parseUUID("ward id", s)
	return WardID(u), err
}

func (id WardID) String() string { return uuid.UUID(id).String() }
func (id WardID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id WardID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *WardID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("ward id", text)
	if err != nil {
		return err
	}
	*id = WardID(u)
	return nil
}

func (id WardID) Value() (driver.Value, error) { return valueUUID(uuid.UUID(id)) }

func (id *WardID) Scan(src any) error {
	u, err := scanUUID(src)
	if err != nil {
		return err
	}
	*id = WardID(u)
	return nil
}

// DepartmentID identifies a municipal department.
type DepartmentID uuid.UUID

// NewDepartmentID returns a fresh random DepartmentID.
func NewDepartmentID() DepartmentID { return DepartmentID(uuid.New()) }

// ParseDepartmentID validates external input.
func ParseDepartmentID(s string) (DepartmentID, error) {
	u, err := parseUUID("department id", s)
	return DepartmentID(u), err
}

func (id DepartmentID) String() string { return uuid.UUID(id).String() }
func (id DepartmentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id DepartmentID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *DepartmentID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("department id", text)
	if err != nil {
		return err
	}
	*id = DepartmentID(u)
	return nil
}

func (id DepartmentID) Value() (driver.Value, error) { return valueUUID(uuid.UUID(id)) }

func (id *DepartmentID) Scan(src any) error {
	u, err := scanUUID(src)
	if err != nil {
		return err
	}
	*id = DepartmentID(u)
	return nil
}

// NotificationID identifies a user notification.
type NotificationID uuid.UUID

// NewNotificationID returns a fresh random NotificationID.
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

// ParseNotificationID validates external input.
func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID("notification id", s)
	return NotificationID(u), err
}

func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id NotificationID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *NotificationID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("notification id", text)
	if err != nil {
		return err
	}
	*id = NotificationID(u)
	return nil
}

func (id NotificationID) Value() (driver.Value, error) { return valueUUID(uuid.UUID(id)) }

func (id *NotificationID) Scan(src any) error {
	u, err := scanUUID(src)
	if err != nil {
		return err
	}
	*id = NotificationID(u)
	return nil
}

// ScheduleID identifies a report schedule.
type ScheduleID uuid.UUID

// NewScheduleID returns a fresh random ScheduleID.
func NewScheduleID() ScheduleID { return ScheduleID(uuid.New()) }

// ParseScheduleID validates external input.
func ParseScheduleID(s string) (ScheduleID, error) {
	u, err := parseUUID("schedule id", s)
	return ScheduleID(u), err
}

func (id ScheduleID) String() string { return uuid.UUID(id).String() }
func (id ScheduleID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id ScheduleID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *ScheduleID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("schedule id", text)
	if err != nil {
		return err
	}
	*id = ScheduleID(u)
	return nil
}

func (id ScheduleID) Value() (driver.Value, error) { return valueUUID(uuid.UUID(id)) }

func (id *ScheduleID) Scan(src any) error {
	u, err := scanUUID(src)
	if err != nil {
		return err
	}
	*id = ScheduleID(u)
	return nil
}

// RunID identifies a generated report run.
type RunID uuid.UUID

// NewRunID returns a fresh random RunID.
func NewRunID() RunID { return RunID(uuid.New()) }

// ParseRunID validates external input.
func ParseRunID(s string) (RunID, error) {
	u, err := parseUUID("report run id", s)
	return RunID(u), err
}

func (id RunID) String() string { return uuid.UUID(id).String() }
func (id RunID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id RunID) MarshalText() ([]byte, error) {
	if id.IsNil() {
		return []byte{}, nil
	}
	return []byte(id.String()), nil
}

func (id *RunID) UnmarshalText(text []byte) error {
	u, err := unmarshalUUID("report run id", text)
	if err != nil {
		return err
	}
	*id = RunID(u)
	return nil
}

func (id RunID) Value() (driver.Value, error) { return valueUUID(uuid.UUID(id)) }

func (id *RunID) Scan(src any) error {
	u, err := scanUUID(src)
	if err != nil {
		return err
	}
	*id = RunID(u)
	return nil
}
