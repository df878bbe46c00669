package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks UserStore,RevocationList,TokenIssuer,WardChecker,LoginGuard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"

	identitymetrics "civic/internal/identity/metrics"
	"civic/internal/identity/models"
	"civic/internal/identity/token"
	rlmodels "civic/internal/ratelimit/models"
	id "civic/pkg/domain"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/email"
	"civic/pkg/platform/audit"
	"civic/pkg/platform/httputil"
	"civic/pkg/platform/sentinel"
	"civic/pkg/requestcontext"
)

var tracer = otel.Tracer("civic/identity")

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, userID id.UserID, mutate func(*models.User) error) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]*models.User, int, error)
	ListIDs(ctx context.Context, role id.Role, wardID id.WardID) ([]id.UserID, error)
}

type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	TrackToken(ctx context.Context, userID, jti string, ttl time.Duration) error
	RevokeUserTokens(ctx context.Context, userID string) (int, error)
}

type TokenIssuer interface {
	Issue(userID id.UserID, role id.Role) (*token.Issued, error)
	TTL() time.Duration
}

// LoginGuard throttles repeated failed logins per email and client address.
type LoginGuard interface {
	Check(ctx context.Context, email, ip string) (*rlmodels.LockoutResult, error)
	RecordFailure(ctx context.Context, email, ip string) (*rlmodels.AuthLockout, error)
	Clear(ctx context.Context, email, ip string) error
}

// WardChecker confirms a ward exists before a user is attached to it.
type WardChecker interface {
	WardExists(ctx context.Context, wardID id.WardID) (bool, error)
}

// Service owns accounts, credentials and access tokens.
type Service struct {
	users      UserStore
	revocation RevocationList
	tokens     TokenIssuer
	wards      WardChecker
	guard      LoginGuard
	logger     *slog.Logger
	auditor    audit.Emitter
	metrics    *identitymetrics.Metrics
	bcryptCost int
	dummyHash  []byte
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithMetrics(m *identitymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithWardChecker(wards WardChecker) Option {
	return func(s *Service) {
		s.wards = wards
	}
}

func WithLoginGuard(guard LoginGuard) Option {
	return func(s *Service) {
		s.guard = guard
	}
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// New constructs a Service.
func New(users UserStore, revocation RevocationList, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		users:      users,
		revocation: revocation,
		tokens:     tokens,
		logger:     slog.Default(),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Unknown emails still pay for one comparison so response time does not
	// reveal which addresses are registered.
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("civic-dummy-password"), s.bcryptCost)
	return s
}

func (s *Service) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	return string(hashed), nil
}

func (s *Service) checkWard(ctx context.Context, wardID id.WardID) error {
	if wardID.IsNil() || s.wards == nil {
		return nil
	}
	ok, err := s.wards.WardExists(ctx, wardID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ward")
	}
	if !ok {
		return dErrors.New(dErrors.CodeValidation, "ward does not exist")
	}
	return nil
}

// Register creates a citizen account.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	wardID := req.Ward()
	if err := s.checkWard(ctx, wardID); err != nil {
		return nil, err
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = email.DisplayNameFromEmail(req.Email)
	}
	user, err := s.createUser(ctx, req.Email, req.Password, displayName, req.Phone, id.RoleCitizen, wardID)
	if err != nil {
		return nil, err
	}

	audit.Log(ctx, s.logger, s.auditor, audit.EventUserRegistered,
		"user_id", user.ID.String(), "subject", user.Email)
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
	}
	return user, nil
}

// CreateUser is the admin path for any role, typically staff accounts.
func (s *Service) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	wardID, _ := id.ParseWardID(req.WardID)
	if err := s.checkWard(ctx, wardID); err != nil {
		return nil, err
	}
	displayName := req.DisplayName
	if displayName == "" {
		displayName = email.DisplayNameFromEmail(req.Email)
	}

	user, err := s.createUser(ctx, req.Email, req.Password, displayName, "", id.Role(req.Role), wardID)
	if err != nil {
		return nil, err
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventUserCreated,
		"user_id", user.ID.String(), "subject", user.Email, "role", user.Role.String())
	return user, nil
}

func (s *Service) createUser(ctx context.Context, address, password, displayName, phone string, role id.Role, wardID id.WardID) (*models.User, error) {
	hashed, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	user, err := models.NewUser(id.NewUserID(), address, displayName, phone, role, wardID, hashed, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin when no account holds the email.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, address, password string) (bool, error) {
	address = email.Normalize(address)
	if _, err := s.users.FindByEmail(ctx, address); err == nil {
		return false, nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up admin")
	}
	_, err := s.CreateUser(ctx, &models.CreateUserRequest{
		Email:       address,
		Password:    password,
		DisplayName: "Administrator",
		Role:        id.RoleAdmin.String(),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Login verifies credentials and issues an access token. With a login guard
// configured, an email and address pair that has failed too often is
// refused before the password is checked.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	ctx, span := tracer.Start(ctx, "identity.Login")
	defer span.End()
	if s.metrics != nil {
		defer s.metrics.ObserveLogin(time.Now())
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ip := requestcontext.ClientIP(ctx)
	if err := s.checkLockout(ctx, req.Email, ip); err != nil {
		return nil, err
	}

	invalid := dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			s.loginFailed(ctx, "", req.Email, "unknown_email")
			s.recordFailure(ctx, req.Email, ip)
			return nil, invalid
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.loginFailed(ctx, user.ID.String(), req.Email, "bad_password")
		s.recordFailure(ctx, req.Email, ip)
		return nil, invalid
	}
	s.clearLockout(ctx, req.Email, ip)
	if !user.IsActive() {
		s.loginFailed(ctx, user.ID.String(), req.Email, "inactive")
		return nil, dErrors.New(dErrors.CodeForbidden, "account is deactivated")
	}

	issued, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.revocation.TrackToken(ctx, user.ID.String(), issued.JTI, s.tokens.TTL()); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record session")
	}

	now := requestcontext.Now(ctx)
	device := DeviceLabel(requestcontext.UserAgent(ctx))
	updated, err := s.users.Update(ctx, user.ID, func(u *models.User) error {
		u.RecordLogin(now, device)
		return nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login")
	}

	audit.Log(ctx, s.logger, s.auditor, audit.EventLoginSucceeded,
		"user_id", user.ID.String(), "subject", user.Email, "device", device)
	if s.metrics != nil {
		s.metrics.IncrementLogin("success")
	}
	return &models.LoginResult{
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
		ExpiresAt:   issued.ExpiresAt,
		User:        updated,
	}, nil
}

func (s *Service) checkLockout(ctx context.Context, address, ip string) error {
	if s.guard == nil {
		return nil
	}
	res, err := s.guard.Check(ctx, address, ip)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check login lockout")
	}
	if res.Allowed {
		return nil
	}
	s.loginFailed(ctx, "", address, "locked")
	minutes := max(int(res.RetryAfter.Round(time.Minute).Minutes()), 1)
	return dErrors.New(dErrors.CodeTooManyRequests,
		fmt.Sprintf("too many failed login attempts, try again in %d minute(s)", minutes))
}

// recordFailure and clearLockout only log store errors: the login outcome
// is already decided.
func (s *Service) recordFailure(ctx context.Context, address, ip string) {
	if s.guard == nil {
		return
	}
	if _, err := s.guard.RecordFailure(ctx, address, ip); err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure", "error", err)
	}
}

func (s *Service) clearLockout(ctx context.Context, address, ip string) {
	if s.guard == nil {
		return
	}
	if err := s.guard.Clear(ctx, address, ip); err != nil {
		s.logger.WarnContext(ctx, "failed to clear login lockout", "error", err)
	}
}

func (s *Service) loginFailed(ctx context.Context, userID, address, reason string) {
	audit.Log(ctx, s.logger, s.auditor, audit.EventLoginFailed,
		"user_id", userID, "subject", address, "reason", reason)
	if s.metrics != nil {
		outcome := "invalid"
		if reason == "inactive" || reason == "locked" {
			outcome = reason
		}
		s.metrics.IncrementLogin(outcome)
	}
}

// Logout revokes the token identified by jti until it would have expired.
func (s *Service) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "missing token id")
	}
	ttl := expiresAt.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil
	}
	if err := s.revocation.RevokeToken(ctx, jti, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	userID := requestcontext.UserID(ctx)
	audit.Log(ctx, s.logger, s.auditor, audit.EventLoggedOut, "user_id", userID.String())
	if s.metrics != nil {
		s.metrics.IncrementLogout()
	}
	return nil
}

// IsTokenRevoked satisfies the auth middleware's revocation check.
func (s *Service) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.revocation.IsRevoked(ctx, jti)
}

func wrapUserErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		if de.Code == dErrors.CodeInvariantViolation {
			return dErrors.New(dErrors.CodeConflict, de.Message)
		}
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
}

// Me returns the caller's own account.
func (s *Service) Me(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.GetUser(ctx, userID)
}

func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return user, nil
}

// UpdateProfile applies a partial profile change for the caller.
func (s *Service) UpdateProfile(ctx context.Context, userID id.UserID, req *models.UpdateProfileRequest) (*models.User, error) {
	patch, err := req.ToPatch()
	if err != nil {
		return nil, err
	}
	if patch.WardID != nil {
		if err := s.checkWard(ctx, *patch.WardID); err != nil {
			return nil, err
		}
	}
	now := requestcontext.Now(ctx)
	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		if err := u.ApplyProfile(patch, now); err != nil {
			return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil
	})
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return user, nil
}

// ListUsers pages through accounts matching filter.
func (s *Service) ListUsers(ctx context.Context, filter models.UserFilter) (*httputil.ListResponse[*models.User], error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	if users == nil {
		users = []*models.User{}
	}
	return &httputil.ListResponse[*models.User]{
		Items:  users,
		Total:  total,
		Limit:  filter.Page.Limit,
		Offset: filter.Page.Offset,
	}, nil
}

// revokeSessions ends every live session of userID so a role or status
// change takes effect on the next request instead of at token expiry.
func (s *Service) revokeSessions(ctx context.Context, userID id.UserID) (int, error) {
	n, err := s.revocation.RevokeUserTokens(ctx, userID.String())
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke sessions")
	}
	return n, nil
}

func (s *Service) sessionsRevoked(ctx context.Context, userID id.UserID, n int, reason string) {
	if n == 0 {
		return
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventSessionsRevoked,
		"user_id", userID.String(), "reason", reason, "sessions", n)
}

// ChangeRole assigns role to userID and ends the user's live sessions. An
// admin cannot demote themselves.
func (s *Service) ChangeRole(ctx context.Context, userID id.UserID, role id.Role) (*models.User, error) {
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "role must be citizen, staff, supervisor or admin")
	}
	actor := requestcontext.UserID(ctx)
	if actor == userID && role != id.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "admins cannot demote themselves")
	}
	now := requestcontext.Now(ctx)
	var (
		previous id.Role
		revoked  int
	)
	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		previous = u.Role
		if err := u.ChangeRole(role, now); err != nil {
			return err
		}
		var err error
		revoked, err = s.revokeSessions(ctx, userID)
		return err
	})
	if err != nil {
		return nil, wrapUserErr(err)
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventRoleChanged,
		"user_id", userID.String(), "subject", previous.String()+"->"+role.String())
	s.sessionsRevoked(ctx, userID, revoked, "role_changed")
	return user, nil
}

// Deactivate blocks the account from logging in and ends its live sessions.
// Self-deactivation is refused.
func (s *Service) Deactivate(ctx context.Context, userID id.UserID) (*models.User, error) {
	if requestcontext.UserID(ctx) == userID {
		return nil, dErrors.New(dErrors.CodeForbidden, "admins cannot deactivate themselves")
	}
	now := requestcontext.Now(ctx)
	var revoked int
	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		if err := u.Deactivate(now); err != nil {
			return err
		}
		var err error
		revoked, err = s.revokeSessions(ctx, userID)
		return err
	})
	if err != nil {
		return nil, wrapUserErr(err)
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventUserDeactivated, "user_id", userID.String())
	s.sessionsRevoked(ctx, userID, revoked, "deactivated")
	return user, nil
}

func (s *Service) Reactivate(ctx context.Context, userID id.UserID) (*models.User, error) {
	now := requestcontext.Now(ctx)
	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		return u.Reactivate(now)
	})
	if err != nil {
		return nil, wrapUserErr(err)
	}
	audit.Log(ctx, s.logger, s.auditor, audit.EventUserReactivated, "user_id", userID.String())
	return user, nil
}

// ListCitizenIDsInWard resolves notice recipients. A nil ward lists every
// citizen.
func (s *Service) ListCitizenIDsInWard(ctx context.Context, wardID id.WardID) ([]id.UserID, error) {
	ids, err := s.users.ListIDs(ctx, id.RoleCitizen, wardID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list citizens")
	}
	return ids, nil
}
