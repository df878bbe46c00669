package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	complaintmodels "civic/internal/complaints/models"
	identitymodels "civic/internal/identity/models"
	"civic/internal/platform/logger"
	"civic/internal/workforce/models"
	"civic/internal/workforce/service/mocks"
	"civic/internal/workforce/store"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

type WorkforceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	desk    *mocks.MockComplaintDesk
	users   *mocks.MockUserLookup
	store   *store.InMemoryStore
	svc     *Service
	tracker *LoadTracker
	now     time.Time
	ward    id.WardID
}

func TestWorkforceSuite(t *testing.T) {
	suite.Run(t, new(WorkforceSuite))
}

func (s *WorkforceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.desk = mocks.NewMockComplaintDesk(s.ctrl)
	s.users = mocks.NewMockUserLookup(s.ctrl)
	s.store = store.NewInMemory()
	s.svc = New(s.store, s.desk, WithUserLookup(s.users), WithLogger(logger.Discard()))
	s.tracker = NewLoadTracker(s.store, logger.Discard())
	s.now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	s.ward = id.NewWardID()
}

func (s *WorkforceSuite) ctx(userID id.UserID, role id.Role) context.Context {
	return requestcontext.WithActor(requestcontext.WithTime(context.Background(), s.now), userID, role)
}

func (s *WorkforceSuite) admin() context.Context {
	return s.ctx(id.NewUserID(), id.RoleAdmin)
}

func (s *WorkforceSuite) account(role id.Role) id.UserID {
	u, err := identitymodels.NewUser(id.NewUserID(), role.String()+"@city.gov", "Worker", "", role, id.WardID{}, "x", s.now)
	s.Require().NoError(err)
	s.users.EXPECT().GetUser(gomock.Any(), u.ID).Return(u, nil)
	return u.ID
}

func (s *WorkforceSuite) staff(maxLoad, load int) id.UserID {
	userID := s.account(id.RoleStaff)
	_, err := s.svc.UpsertStaff(s.admin(), userID, &models.StaffRequest{
		WardIDs: []string{s.ward.String()},
		MaxLoad: maxLoad,
	})
	s.Require().NoError(err)
	for range load {
		s.Require().NoError(s.tracker.Reserve(s.admin(), userID))
	}
	return userID
}

func (s *WorkforceSuite) TestUpsertStaffValidation() {
	citizen := s.account(id.RoleCitizen)
	_, err := s.svc.UpsertStaff(s.admin(), citizen, &models.StaffRequest{MaxLoad: 5})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	staffID := s.account(id.RoleStaff)
	_, err = s.svc.UpsertStaff(s.admin(), staffID, &models.StaffRequest{MaxLoad: 0})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.UpsertStaff(s.admin(), id.NewUserID(), &models.StaffRequest{MaxLoad: 5, WardIDs: []string{"nope"}})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *WorkforceSuite) TestReserveAndRelease() {
	staffID := s.staff(2, 2)

	err := s.tracker.Reserve(s.admin(), staffID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	s.Require().NoError(s.tracker.Release(s.admin(), staffID))
	w, err := s.svc.Workload(s.admin(), staffID)
	s.Require().NoError(err)
	s.Equal(1, w.CurrentLoad)
	s.Equal(50.0, w.Percentage)
	s.Equal(models.LevelModerate, w.Level)

	err = s.tracker.Reserve(s.admin(), id.NewUserID())
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.NoError(s.tracker.Release(s.admin(), id.NewUserID()), "missing profile is ignored")
}

func (s *WorkforceSuite) TestWardWorkloadAndSuggestion() {
	busy := s.staff(4, 3)
	idle := s.staff(4, 0)
	full := s.staff(1, 1)

	rows, err := s.svc.WardWorkload(s.admin(), s.ward)
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.Equal(full, rows[0].UserID)
	s.Equal(busy, rows[1].UserID)
	s.Equal(idle, rows[2].UserID)

	best, err := s.svc.SuggestAssignee(s.admin(), s.ward, id.DepartmentID{})
	s.Require().NoError(err)
	s.Equal(idle, best.UserID)

	_, err = s.svc.SuggestAssignee(s.admin(), id.NewWardID(), id.DepartmentID{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *WorkforceSuite) TestReassignJurisdiction() {
	target := s.staff(3, 0)
	supervisor := s.account(id.RoleSupervisor)
	_, err := s.svc.UpsertSupervisor(s.admin(), supervisor, &models.SupervisorRequest{WardIDs: []string{s.ward.String()}})
	s.Require().NoError(err)

	inWard := &complaintmodels.Complaint{ID: id.NewComplaintID(), WardID: s.ward}
	elsewhere := &complaintmodels.Complaint{ID: id.NewComplaintID(), WardID: id.NewWardID()}

	s.Run("outside jurisdiction is forbidden", func() {
		s.desk.EXPECT().Get(gomock.Any(), elsewhere.ID).Return(elsewhere, nil)
		_, err := s.svc.Reassign(s.ctx(supervisor, id.RoleSupervisor), elsewhere.ID, target)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("supervisor without profile is forbidden", func() {
		s.desk.EXPECT().Get(gomock.Any(), inWard.ID).Return(inWard, nil)
		_, err := s.svc.Reassign(s.ctx(id.NewUserID(), id.RoleSupervisor), inWard.ID, target)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("inside jurisdiction delegates to the desk", func() {
		s.desk.EXPECT().Get(gomock.Any(), inWard.ID).Return(inWard, nil)
		s.desk.EXPECT().Assign(gomock.Any(), inWard.ID, target).Return(inWard, nil)
		_, err := s.svc.Reassign(s.ctx(supervisor, id.RoleSupervisor), inWard.ID, target)
		s.NoError(err)
	})

	s.Run("admins act anywhere", func() {
		s.desk.EXPECT().Get(gomock.Any(), elsewhere.ID).Return(elsewhere, nil)
		s.desk.EXPECT().Assign(gomock.Any(), elsewhere.ID, target).Return(elsewhere, nil)
		_, err := s.svc.Reassign(s.admin(), elsewhere.ID, target)
		s.NoError(err)
	})
}

func (s *WorkforceSuite) TestReassignRejectsFullStaff() {
	full := s.staff(1, 1)
	c := &complaintmodels.Complaint{ID: id.NewComplaintID(), WardID: s.ward}
	s.desk.EXPECT().Get(gomock.Any(), c.ID).Return(c, nil)

	_, err := s.svc.Reassign(s.admin(), c.ID, full)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}
