package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"civic/internal/billing/models"
	"civic/internal/billing/service/mocks"
	"civic/internal/billing/store"
	identitymodels "civic/internal/identity/models"
	"civic/internal/platform/events"
	"civic/internal/platform/logger"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

// Justification: settlement runs inside the store's locked section, so the
// in-memory store stays real while mocks stand in for account lookup and
// event delivery.
type BillingSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	users     *mocks.MockUserLookup
	publisher *mocks.MockPublisher
	svc       *Service
	now       time.Time

	admin   id.UserID
	citizen id.UserID
	other   id.UserID
}

func TestBillingSuite(t *testing.T) {
	suite.Run(t, new(BillingSuite))
}

func (s *BillingSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.users = mocks.NewMockUserLookup(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.svc = New(store.NewInMemory(),
		WithUserLookup(s.users),
		WithPublisher(s.publisher),
		WithLogger(logger.Discard()),
	)
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.admin = id.NewUserID()
	s.citizen = id.NewUserID()
	s.other = id.NewUserID()
}

func (s *BillingSuite) at(userID id.UserID, role id.Role, t time.Time) context.Context {
	ctx := requestcontext.WithTime(context.Background(), t)
	return requestcontext.WithActor(ctx, userID, role)
}

func (s *BillingSuite) as(userID id.UserID, role id.Role) context.Context {
	return s.at(userID, role, s.now)
}

func (s *BillingSuite) citizenExists(userID id.UserID) {
	s.users.EXPECT().GetUser(gomock.Any(), userID).
		Return(&identitymodels.User{ID: userID, Role: id.RoleCitizen}, nil)
}

func (s *BillingSuite) issue(amount int64, due time.Time) *models.Bill {
	s.citizenExists(s.citizen)
	b, err := s.svc.Issue(s.as(s.admin, id.RoleAdmin), &models.IssueRequest{
		CitizenID: s.citizen.String(),
		Kind:      "Water",
		Reference: "WTR-2026-03",
		Amount:    amount,
		DueDate:   due,
	})
	s.Require().NoError(err)
	return b
}

func (s *BillingSuite) allowEvents() {
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).AnyTimes()
}

func (s *BillingSuite) TestIssue() {
	s.Run("publishes bill.issued for the citizen", func() {
		var got events.Event
		s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Do(func(_ context.Context, evt events.Event) {
			got = evt
		})
		b := s.issue(12500, s.now.Add(14*24*time.Hour))

		s.Equal(models.StatusUnpaid, b.Status)
		s.Equal(models.KindWater, b.Kind)
		s.Equal(events.TopicBillIssued, got.Topic)
		payload, ok := got.Payload.(events.BillIssued)
		s.Require().True(ok)
		s.Equal(s.citizen, payload.CitizenID)
		s.Equal(int64(12500), payload.Amount)
	})

	s.Run("only citizens can be billed", func() {
		staff := id.NewUserID()
		s.users.EXPECT().GetUser(gomock.Any(), staff).Return(&identitymodels.User{ID: staff, Role: id.RoleStaff}, nil)
		_, err := s.svc.Issue(s.as(s.admin, id.RoleAdmin), &models.IssueRequest{
			CitizenID: staff.String(), Kind: "water", Reference: "R-1", Amount: 100, DueDate: s.now,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown citizen is a validation error", func() {
		ghost := id.NewUserID()
		s.users.EXPECT().GetUser(gomock.Any(), ghost).Return(nil, dErrors.New(dErrors.CodeNotFound, "user not found"))
		_, err := s.svc.Issue(s.as(s.admin, id.RoleAdmin), &models.IssueRequest{
			CitizenID: ghost.String(), Kind: "water", Reference: "R-1", Amount: 100, DueDate: s.now,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown kind is a validation error", func() {
		s.citizenExists(s.citizen)
		_, err := s.svc.Issue(s.as(s.admin, id.RoleAdmin), &models.IssueRequest{
			CitizenID: s.citizen.String(), Kind: "parking", Reference: "R-1", Amount: 100, DueDate: s.now,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *BillingSuite) TestVisibility() {
	s.allowEvents()
	b := s.issue(5000, s.now.Add(24*time.Hour))

	_, err := s.svc.Get(s.as(s.other, id.RoleCitizen), b.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	got, err := s.svc.Get(s.as(id.NewUserID(), id.RoleStaff), b.ID)
	s.Require().NoError(err)
	s.Equal(b.ID, got.ID)

	mine, err := s.svc.List(s.as(s.citizen, id.RoleCitizen), models.Filter{})
	s.Require().NoError(err)
	s.Equal(1, mine.Total)

	theirs, err := s.svc.List(s.as(s.other, id.RoleCitizen), models.Filter{CitizenID: s.citizen})
	s.Require().NoError(err)
	s.Equal(0, theirs.Total, "citizen filter is forced to the caller")
}

func (s *BillingSuite) TestQuoteAccruesLateFees() {
	s.allowEvents()
	due := s.now.Add(10 * 24 * time.Hour)
	b := s.issue(10000, due)

	q, err := s.svc.Quote(s.as(s.citizen, id.RoleCitizen), b.ID)
	s.Require().NoError(err)
	s.False(q.Overdue)
	s.Equal(int64(10000), q.Total)

	q, err = s.svc.Quote(s.at(s.citizen, id.RoleCitizen, due.Add(31*24*time.Hour)), b.ID)
	s.Require().NoError(err)
	s.True(q.Overdue)
	s.Equal(int64(2), q.Periods)
	s.Equal(int64(400), q.LateFee)
	s.Equal(int64(10400), q.Total)

	q, err = s.svc.Quote(s.at(s.citizen, id.RoleCitizen, due.Add(2*365*24*time.Hour)), b.ID)
	s.Require().NoError(err)
	s.Equal(int64(2500), q.LateFee, "capped at a quarter of the amount")
}

func (s *BillingSuite) TestPay() {
	s.Run("settles at the current quote and publishes bill.paid", func() {
		s.allowEvents()
		due := s.now.Add(24 * time.Hour)
		b := s.issue(8000, due)

		payment, err := s.svc.Pay(s.at(s.citizen, id.RoleCitizen, due.Add(time.Hour)), b.ID, &models.PayRequest{Method: "card"})
		s.Require().NoError(err)
		s.Equal(int64(8000), payment.Amount)
		s.Equal(int64(160), payment.LateFee)
		s.Equal(int64(8160), payment.Total())
		s.Contains(payment.Reference, "PAY-")

		got, err := s.svc.Get(s.as(s.citizen, id.RoleCitizen), b.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPaid, got.Status)
		s.Require().NotNil(got.PaidAt)

		q, err := s.svc.Quote(s.at(s.citizen, id.RoleCitizen, due.Add(90*24*time.Hour)), b.ID)
		s.Require().NoError(err)
		s.Zero(q.LateFee, "paid bills stop accruing")

		payments, err := s.svc.ListPayments(s.as(s.citizen, id.RoleCitizen))
		s.Require().NoError(err)
		s.Len(payments, 1)
	})

	s.Run("paying twice is a conflict", func() {
		s.allowEvents()
		b := s.issue(1000, s.now.Add(time.Hour))
		_, err := s.svc.Pay(s.as(s.citizen, id.RoleCitizen), b.ID, &models.PayRequest{Method: "wallet"})
		s.Require().NoError(err)
		_, err = s.svc.Pay(s.as(s.citizen, id.RoleCitizen), b.ID, &models.PayRequest{Method: "wallet"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("another citizen's bill reads as missing", func() {
		s.allowEvents()
		b := s.issue(1000, s.now.Add(time.Hour))
		_, err := s.svc.Pay(s.as(s.other, id.RoleCitizen), b.ID, &models.PayRequest{Method: "card"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown method is rejected", func() {
		s.allowEvents()
		b := s.issue(1000, s.now.Add(time.Hour))
		_, err := s.svc.Pay(s.as(s.citizen, id.RoleCitizen), b.ID, &models.PayRequest{Method: "cheque"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("concurrent payments settle once", func() {
		s.allowEvents()
		b := s.issue(1000, s.now.Add(time.Hour))
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.svc.Pay(s.as(s.citizen, id.RoleCitizen), b.ID, &models.PayRequest{Method: "card"}); err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		s.Equal(1, successes)
	})
}

func (s *BillingSuite) TestCancel() {
	s.allowEvents()
	b := s.issue(3000, s.now.Add(time.Hour))

	cancelled, err := s.svc.Cancel(s.as(s.admin, id.RoleAdmin), b.ID, "issued in error")
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, cancelled.Status)

	_, err = s.svc.Pay(s.as(s.citizen, id.RoleCitizen), b.ID, &models.PayRequest{Method: "card"})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.svc.Cancel(s.as(s.admin, id.RoleAdmin), b.ID, "again")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *BillingSuite) TestStats() {
	s.allowEvents()
	due := s.now.Add(24 * time.Hour)
	paid := s.issue(10000, due)
	s.issue(4000, due)
	cancelled := s.issue(999, due)

	_, err := s.svc.Pay(s.at(s.citizen, id.RoleCitizen, due.Add(time.Hour)), paid.ID, &models.PayRequest{Method: "cash"})
	s.Require().NoError(err)
	_, err = s.svc.Cancel(s.as(s.admin, id.RoleAdmin), cancelled.ID, "")
	s.Require().NoError(err)

	stats, err := s.svc.Stats(s.at(s.admin, id.RoleAdmin, due.Add(2*time.Hour)))
	s.Require().NoError(err)
	s.Equal(2, stats.Bills)
	s.Equal(int64(14000), stats.Issued)
	s.Equal(int64(4000), stats.Outstanding)
	s.Equal(1, stats.Overdue)
	s.Equal(int64(10200), stats.Collected)
	s.Equal(int64(200), stats.LateFees)
}

func (s *BillingSuite) TestStoreFailureIsInternal() {
	st := mocks.NewMockStore(s.ctrl)
	svc := New(st, WithLogger(logger.Discard()))
	st.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err := svc.Get(s.as(s.citizen, id.RoleCitizen), id.NewBillID())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *BillingSuite) TestLateFeePolicyOption() {
	svc := New(store.NewInMemory(), WithLateFeePolicy(models.LateFeePolicy{Rate: 0.05}))
	s.Equal(0.05, svc.Policy().Rate)
	s.Equal(models.DefaultLateFeePolicy.Cap, svc.Policy().Cap)
}
