package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"civic/internal/identity/models"
	"civic/internal/identity/service/mocks"
	"civic/internal/identity/store/revocation"
	userstore "civic/internal/identity/store/user"
	"civic/internal/identity/token"
	"civic/internal/platform/logger"
	rlmodels "civic/internal/ratelimit/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

const firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"

// =============================================================================
// Login / logout (mocked ports)
// =============================================================================

// Justification: credential checks, inactive-account rejection and token
// revocation are security invariants; mocks pin which ports each path may touch.
type LoginSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	users  *mocks.MockUserStore
	trl    *mocks.MockRevocationList
	tokens *mocks.MockTokenIssuer
	guard  *mocks.MockLoginGuard
	svc    *Service
	now    time.Time
	ctx    context.Context
}

func TestLoginSuite(t *testing.T) {
	suite.Run(t, new(LoginSuite))
}

func (s *LoginSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.users = mocks.NewMockUserStore(s.ctrl)
	s.trl = mocks.NewMockRevocationList(s.ctrl)
	s.tokens = mocks.NewMockTokenIssuer(s.ctrl)
	s.guard = mocks.NewMockLoginGuard(s.ctrl)
	s.svc = New(s.users, s.trl, s.tokens,
		WithBcryptCost(bcrypt.MinCost),
		WithLogger(logger.Discard()),
	)
	s.now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctx = requestcontext.WithClientMetadata(s.ctx, "203.0.113.7", firefoxUA)
}

func (s *LoginSuite) user(password string) *models.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	s.Require().NoError(err)
	u, err := models.NewUser(id.NewUserID(), "jane@example.org", "Jane", "", id.RoleCitizen, id.WardID{}, string(hashed), s.now.Add(-time.Hour))
	s.Require().NoError(err)
	return u
}

func applyUpdate(u *models.User) func(context.Context, id.UserID, func(*models.User) error) (*models.User, error) {
	return func(_ context.Context, _ id.UserID, mutate func(*models.User) error) (*models.User, error) {
		working := *u
		if err := mutate(&working); err != nil {
			return nil, err
		}
		return &working, nil
	}
}

func (s *LoginSuite) TestLoginSuccess() {
	u := s.user("correct-horse")
	s.users.EXPECT().FindByEmail(gomock.Any(), "jane@example.org").Return(u, nil)
	s.tokens.EXPECT().Issue(u.ID, id.RoleCitizen).Return(&token.Issued{
		Token:     "signed",
		JTI:       "jti-1",
		ExpiresAt: s.now.Add(15 * time.Minute),
	}, nil)
	s.tokens.EXPECT().TTL().Return(15 * time.Minute).Times(2)
	s.trl.EXPECT().TrackToken(gomock.Any(), u.ID.String(), "jti-1", 15*time.Minute).Return(nil)
	s.users.EXPECT().Update(gomock.Any(), u.ID, gomock.Any()).DoAndReturn(applyUpdate(u))

	res, err := s.svc.Login(s.ctx, &models.LoginRequest{Email: "  Jane@Example.org ", Password: "correct-horse"})
	s.Require().NoError(err)
	s.Equal("signed", res.AccessToken)
	s.Equal("Bearer", res.TokenType)
	s.Equal(900, res.ExpiresIn)
	s.Require().NotNil(res.User.LastLoginAt)
	s.True(res.User.LastLoginAt.Equal(s.now))
	s.Contains(res.User.LastLoginDevice, "Firefox")
}

func (s *LoginSuite) TestLoginRejections() {
	s.Run("unknown email is unauthorized", func() {
		s.users.EXPECT().FindByEmail(gomock.Any(), "ghost@example.org").Return(nil, sentinel.ErrNotFound)

		_, err := s.svc.Login(s.ctx, &models.LoginRequest{Email: "ghost@example.org", Password: "whatever1"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("wrong password is unauthorized and issues nothing", func() {
		u := s.user("correct-horse")
		s.users.EXPECT().FindByEmail(gomock.Any(), u.Email).Return(u, nil)

		_, err := s.svc.Login(s.ctx, &models.LoginRequest{Email: u.Email, Password: "battery-staple"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Equal("invalid email or password", dErrors.MessageOf(err))
	})

	s.Run("inactive account is forbidden", func() {
		u := s.user("correct-horse")
		s.Require().NoError(u.Deactivate(s.now))
		s.users.EXPECT().FindByEmail(gomock.Any(), u.Email).Return(u, nil)

		_, err := s.svc.Login(s.ctx, &models.LoginRequest{Email: u.Email, Password: "correct-horse"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("missing fields fail validation", func() {
		_, err := s.svc.Login(s.ctx, &models.LoginRequest{Email: "jane@example.org"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *LoginSuite) TestLoginSessionTrackingFailureIssuesNothing() {
	u := s.user("correct-horse")
	s.users.EXPECT().FindByEmail(gomock.Any(), u.Email).Return(u, nil)
	s.tokens.EXPECT().Issue(u.ID, id.RoleCitizen).Return(&token.Issued{Token: "signed", JTI: "jti-1"}, nil)
	s.tokens.EXPECT().TTL().Return(15 * time.Minute)
	s.trl.EXPECT().TrackToken(gomock.Any(), u.ID.String(), "jti-1", 15*time.Minute).Return(errors.New("redis down"))

	res, err := s.svc.Login(s.ctx, &models.LoginRequest{Email: u.Email, Password: "correct-horse"})
	s.Nil(res)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *LoginSuite) TestLoginLockout() {
	guarded := New(s.users, s.trl, s.tokens,
		WithBcryptCost(bcrypt.MinCost),
		WithLogger(logger.Discard()),
		WithLoginGuard(s.guard),
	)
	const ip = "203.0.113.7"

	s.Run("locked pair is refused before the password is checked", func() {
		s.guard.EXPECT().Check(gomock.Any(), "jane@example.org", ip).
			Return(&rlmodels.LockoutResult{RetryAfter: 14*time.Minute + 20*time.Second}, nil)

		_, err := guarded.Login(s.ctx, &models.LoginRequest{Email: "Jane@example.org", Password: "correct-horse"})
		s.True(dErrors.HasCode(err, dErrors.CodeTooManyRequests))
		s.Contains(dErrors.MessageOf(err), "14 minute(s)")
	})

	s.Run("wrong password and unknown email count as failures", func() {
		u := s.user("correct-horse")
		s.guard.EXPECT().Check(gomock.Any(), u.Email, ip).Return(&rlmodels.LockoutResult{Allowed: true, Remaining: 5}, nil)
		s.users.EXPECT().FindByEmail(gomock.Any(), u.Email).Return(u, nil)
		s.guard.EXPECT().RecordFailure(gomock.Any(), u.Email, ip).Return(&rlmodels.AuthLockout{FailureCount: 1}, nil)

		_, err := guarded.Login(s.ctx, &models.LoginRequest{Email: u.Email, Password: "battery-staple"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		s.guard.EXPECT().Check(gomock.Any(), "ghost@example.org", ip).Return(&rlmodels.LockoutResult{Allowed: true}, nil)
		s.users.EXPECT().FindByEmail(gomock.Any(), "ghost@example.org").Return(nil, sentinel.ErrNotFound)
		s.guard.EXPECT().RecordFailure(gomock.Any(), "ghost@example.org", ip).Return(nil, errors.New("store down"))

		_, err = guarded.Login(s.ctx, &models.LoginRequest{Email: "ghost@example.org", Password: "whatever1"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "a store error does not change the answer")
	})

	s.Run("success clears the failures", func() {
		u := s.user("correct-horse")
		s.guard.EXPECT().Check(gomock.Any(), u.Email, ip).Return(&rlmodels.LockoutResult{Allowed: true, Remaining: 2}, nil)
		s.users.EXPECT().FindByEmail(gomock.Any(), u.Email).Return(u, nil)
		s.guard.EXPECT().Clear(gomock.Any(), u.Email, ip).Return(nil)
		s.tokens.EXPECT().Issue(u.ID, id.RoleCitizen).Return(&token.Issued{Token: "signed", JTI: "jti-2"}, nil)
		s.tokens.EXPECT().TTL().Return(15 * time.Minute).Times(2)
		s.trl.EXPECT().TrackToken(gomock.Any(), u.ID.String(), "jti-2", 15*time.Minute).Return(nil)
		s.users.EXPECT().Update(gomock.Any(), u.ID, gomock.Any()).DoAndReturn(applyUpdate(u))

		res, err := guarded.Login(s.ctx, &models.LoginRequest{Email: u.Email, Password: "correct-horse"})
		s.Require().NoError(err)
		s.Equal("signed", res.AccessToken)
	})

	s.Run("guard errors fail closed", func() {
		s.guard.EXPECT().Check(gomock.Any(), "jane@example.org", ip).Return(nil, errors.New("db down"))

		_, err := guarded.Login(s.ctx, &models.LoginRequest{Email: "jane@example.org", Password: "correct-horse"})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *LoginSuite) TestAccountChangesRevokeSessions() {
	admin := id.NewUserID()
	ctx := requestcontext.WithActor(s.ctx, admin, id.RoleAdmin)

	s.Run("deactivation revokes live tokens", func() {
		u := s.user("correct-horse")
		s.users.EXPECT().Update(gomock.Any(), u.ID, gomock.Any()).DoAndReturn(applyUpdate(u))
		s.trl.EXPECT().RevokeUserTokens(gomock.Any(), u.ID.String()).Return(2, nil)

		got, err := s.svc.Deactivate(ctx, u.ID)
		s.Require().NoError(err)
		s.False(got.IsActive())
	})

	s.Run("role change revokes live tokens", func() {
		u := s.user("correct-horse")
		s.users.EXPECT().Update(gomock.Any(), u.ID, gomock.Any()).DoAndReturn(applyUpdate(u))
		s.trl.EXPECT().RevokeUserTokens(gomock.Any(), u.ID.String()).Return(1, nil)

		got, err := s.svc.ChangeRole(ctx, u.ID, id.RoleStaff)
		s.Require().NoError(err)
		s.Equal(id.RoleStaff, got.Role)
	})

	s.Run("revocation failure aborts the change", func() {
		u := s.user("correct-horse")
		s.users.EXPECT().Update(gomock.Any(), u.ID, gomock.Any()).DoAndReturn(applyUpdate(u))
		s.trl.EXPECT().RevokeUserTokens(gomock.Any(), u.ID.String()).Return(0, errors.New("redis down"))

		_, err := s.svc.Deactivate(ctx, u.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *LoginSuite) TestLogout() {
	s.Run("revokes for the remaining lifetime", func() {
		s.trl.EXPECT().RevokeToken(gomock.Any(), "jti-1", 10*time.Minute).Return(nil)
		s.NoError(s.svc.Logout(s.ctx, "jti-1", s.now.Add(10*time.Minute)))
	})

	s.Run("already expired token is a no-op", func() {
		s.NoError(s.svc.Logout(s.ctx, "jti-2", s.now.Add(-time.Second)))
	})

	s.Run("missing jti is unauthorized", func() {
		err := s.svc.Logout(s.ctx, "", s.now.Add(time.Minute))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *LoginSuite) TestAdminSelfProtection() {
	admin := id.NewUserID()
	ctx := requestcontext.WithActor(s.ctx, admin, id.RoleAdmin)

	s.Run("admin cannot demote themselves", func() {
		_, err := s.svc.ChangeRole(ctx, admin, id.RoleStaff)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin cannot deactivate themselves", func() {
		_, err := s.svc.Deactivate(ctx, admin)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("same role is a conflict", func() {
		u := s.user("correct-horse")
		s.users.EXPECT().Update(gomock.Any(), u.ID, gomock.Any()).DoAndReturn(applyUpdate(u))

		_, err := s.svc.ChangeRole(ctx, u.ID, id.RoleCitizen)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown user is not found", func() {
		missing := id.NewUserID()
		s.users.EXPECT().Update(gomock.Any(), missing, gomock.Any()).Return(nil, sentinel.ErrNotFound)

		_, err := s.svc.Deactivate(ctx, missing)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Registration and profile (in-memory store)
// =============================================================================

// Justification: registration normalisation and uniqueness span the request
// model, the service and the store, so the real in-memory store is used.
type AccountSuite struct {
	suite.Suite
	ctrl  *gomock.Controller
	wards *mocks.MockWardChecker
	users *userstore.InMemoryUserStore
	trl   *revocation.InMemoryTRL
	svc   *Service
	ctx   context.Context
}

func TestAccountSuite(t *testing.T) {
	suite.Run(t, new(AccountSuite))
}

func (s *AccountSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.wards = mocks.NewMockWardChecker(s.ctrl)
	s.users = userstore.New()
	s.trl = revocation.NewInMemoryTRL()
	s.svc = New(s.users, s.trl, nil,
		WithBcryptCost(bcrypt.MinCost),
		WithWardChecker(s.wards),
	)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
}

func (s *AccountSuite) TestRegister() {
	s.Run("derives display name and stores a bcrypt hash", func() {
		u, err := s.svc.Register(s.ctx, &models.RegisterRequest{Email: "Ravi.Kumar@Example.org", Password: "long-enough"})
		s.Require().NoError(err)
		s.Equal("ravi.kumar@example.org", u.Email)
		s.Equal("Ravi Kumar", u.DisplayName)
		s.Equal(id.RoleCitizen, u.Role)
		s.Equal(models.UserStatusActive, u.Status)
		s.NoError(bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("long-enough")))
	})

	s.Run("duplicate email is a conflict regardless of case", func() {
		_, err := s.svc.Register(s.ctx, &models.RegisterRequest{Email: "RAVI.KUMAR@example.org", Password: "long-enough"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("short password fails validation", func() {
		_, err := s.svc.Register(s.ctx, &models.RegisterRequest{Email: "new@example.org", Password: "short"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown ward fails validation", func() {
		ward := id.NewWardID()
		s.wards.EXPECT().WardExists(gomock.Any(), ward).Return(false, nil)

		_, err := s.svc.Register(s.ctx, &models.RegisterRequest{Email: "ward@example.org", Password: "long-enough", WardID: ward.String()})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *AccountSuite) TestUpdateProfile() {
	u, err := s.svc.Register(s.ctx, &models.RegisterRequest{Email: "asha@example.org", Password: "long-enough"})
	s.Require().NoError(err)

	s.Run("applies provided fields only", func() {
		name := "Asha R"
		updated, err := s.svc.UpdateProfile(s.ctx, u.ID, &models.UpdateProfileRequest{DisplayName: &name})
		s.Require().NoError(err)
		s.Equal("Asha R", updated.DisplayName)
		s.Equal(u.Email, updated.Email)
	})

	s.Run("invalid phone leaves the profile untouched", func() {
		name := "Someone Else"
		phone := "call me"
		_, err := s.svc.UpdateProfile(s.ctx, u.ID, &models.UpdateProfileRequest{DisplayName: &name, Phone: &phone})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		current, err := s.svc.Me(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal("Asha R", current.DisplayName)
	})
}

func (s *AccountSuite) TestAdminLifecycle() {
	created, err := s.svc.EnsureAdmin(s.ctx, "admin@city.gov", "bootstrap-secret")
	s.Require().NoError(err)
	s.True(created)
	created, err = s.svc.EnsureAdmin(s.ctx, "ADMIN@city.gov", "bootstrap-secret")
	s.Require().NoError(err)
	s.False(created)

	admin, err := s.users.FindByEmail(s.ctx, "admin@city.gov")
	s.Require().NoError(err)
	ctx := requestcontext.WithActor(s.ctx, admin.ID, id.RoleAdmin)

	staff, err := s.svc.CreateUser(ctx, &models.CreateUserRequest{Email: "crew@city.gov", Password: "long-enough", Role: "Staff"})
	s.Require().NoError(err)
	s.Equal(id.RoleStaff, staff.Role)

	s.Require().NoError(s.trl.TrackToken(ctx, staff.ID.String(), "crew-session", time.Hour))
	deactivated, err := s.svc.Deactivate(ctx, staff.ID)
	s.Require().NoError(err)
	s.Equal(models.UserStatusInactive, deactivated.Status)
	revoked, err := s.svc.IsTokenRevoked(ctx, "crew-session")
	s.Require().NoError(err)
	s.True(revoked, "a deactivated account's token stops working at once")

	_, err = s.svc.Deactivate(ctx, staff.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	reactivated, err := s.svc.Reactivate(ctx, staff.ID)
	s.Require().NoError(err)
	s.True(reactivated.IsActive())

	promoted, err := s.svc.ChangeRole(ctx, staff.ID, id.RoleSupervisor)
	s.Require().NoError(err)
	s.Equal(id.RoleSupervisor, promoted.Role)

	list, err := s.svc.ListUsers(ctx, models.UserFilter{Role: id.RoleSupervisor})
	s.Require().NoError(err)
	s.Equal(1, list.Total)
	s.Equal(staff.ID, list.Items[0].ID)
}

func TestDeviceLabel(t *testing.T) {
	suite.Run(t, new(deviceSuite))
}

type deviceSuite struct {
	suite.Suite
}

func (s *deviceSuite) TestLabels() {
	s.Equal("Unknown Device", DeviceLabel("  "))
	s.Contains(DeviceLabel(firefoxUA), "Firefox on ")
	s.Contains(DeviceLabel("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"), "(mobile)")
}
