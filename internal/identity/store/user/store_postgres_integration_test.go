//go:build integration

package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civic/internal/identity/models"
	"civic/internal/identity/store/user"
	id "civic/pkg/domain"
	"civic/pkg/platform/httputil"
	"civic/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresUserStore
	wardA    id.WardID
	wardB    id.WardID
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "users", "wards"))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
	s.wardA, s.wardB = id.NewWardID(), id.NewWardID()
	for i, w := range []id.WardID{s.wardA, s.wardB} {
		_, err := s.postgres.Exec(ctx, `INSERT INTO wards (id, name, code, created_at) VALUES ($1, $2, $3, $4)`,
			w, []string{"North", "South"}[i], []string{"N1", "S1"}[i], s.now)
		s.Require().NoError(err)
	}
}

func (s *PostgresStoreSuite) create(email string, role id.Role, ward id.WardID, at time.Time) *models.User {
	u, err := models.NewUser(id.NewUserID(), email, "Resident", "", role, ward, "hash", at)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), u))
	return u
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	created := s.create("asha@example.org", id.RoleCitizen, s.wardA, s.now)

	byID, err := s.store.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Email, byID.Email)
	s.Equal(s.wardA, byID.WardID)
	s.Equal(models.UserStatusActive, byID.Status)
	s.Nil(byID.LastLoginAt)

	byEmail, err := s.store.FindByEmail(ctx, "asha@example.org")
	s.Require().NoError(err)
	s.Equal(created.ID, byEmail.ID)

	_, err = s.store.FindByEmail(ctx, "nobody@example.org")
	s.ErrorIs(err, user.ErrNotFound)
	_, err = s.store.FindByID(ctx, id.NewUserID())
	s.ErrorIs(err, user.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateEmailIsRejected() {
	s.create("asha@example.org", id.RoleCitizen, s.wardA, s.now)

	dup, err := models.NewUser(id.NewUserID(), "asha@example.org", "Other", "", id.RoleCitizen, id.WardID{}, "hash", s.now)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Create(context.Background(), dup), user.ErrEmailTaken)
}

func (s *PostgresStoreSuite) TestUserWithoutWardStoresNull() {
	staff := s.create("clerk@city.gov", id.RoleStaff, id.WardID{}, s.now)

	got, err := s.store.FindByID(context.Background(), staff.ID)
	s.Require().NoError(err)
	s.True(got.WardID.IsNil())
}

func (s *PostgresStoreSuite) TestUpdate() {
	ctx := context.Background()
	u := s.create("asha@example.org", id.RoleCitizen, s.wardA, s.now)

	s.Run("persists mutation", func() {
		later := s.now.Add(time.Hour)
		updated, err := s.store.Update(ctx, u.ID, func(u *models.User) error {
			u.RecordLogin(later, "firefox")
			return u.ChangeRole(id.RoleStaff, later)
		})
		s.Require().NoError(err)
		s.Equal(id.RoleStaff, updated.Role)

		got, err := s.store.FindByID(ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(id.RoleStaff, got.Role)
		s.Require().NotNil(got.LastLoginAt)
		s.True(got.LastLoginAt.Equal(later))
		s.Equal("firefox", got.LastLoginDevice)
	})

	s.Run("mutate error rolls back", func() {
		boom := errors.New("boom")
		_, err := s.store.Update(ctx, u.ID, func(u *models.User) error {
			u.DisplayName = "Changed"
			return boom
		})
		s.ErrorIs(err, boom)

		got, err := s.store.FindByID(ctx, u.ID)
		s.Require().NoError(err)
		s.Equal("Resident", got.DisplayName)
	})

	s.Run("unknown user", func() {
		_, err := s.store.Update(ctx, id.NewUserID(), func(*models.User) error { return nil })
		s.ErrorIs(err, user.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestListFiltersAndPages() {
	ctx := context.Background()
	for i := range 3 {
		s.create("north"+string(rune('a'+i))+"@example.org", id.RoleCitizen, s.wardA, s.now.Add(time.Duration(i)*time.Minute))
	}
	s.create("south@example.org", id.RoleCitizen, s.wardB, s.now)
	staff := s.create("clerk@city.gov", id.RoleStaff, id.WardID{}, s.now)
	_, err := s.store.Update(ctx, staff.ID, func(u *models.User) error { return u.Deactivate(s.now) })
	s.Require().NoError(err)

	users, total, err := s.store.List(ctx, models.UserFilter{Role: id.RoleCitizen, WardID: s.wardA, Page: httputil.Page{Limit: 2}})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(users, 2)
	s.Equal("northc@example.org", users[0].Email, "newest first")

	users, total, err = s.store.List(ctx, models.UserFilter{Role: id.RoleCitizen, WardID: s.wardA, Page: httputil.Page{Limit: 2, Offset: 2}})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(users, 1)

	users, total, err = s.store.List(ctx, models.UserFilter{Status: models.UserStatusInactive})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(users, 1)
	s.Equal(staff.ID, users[0].ID)
}

func (s *PostgresStoreSuite) TestListIDsReturnsActiveUsersOnly() {
	ctx := context.Background()
	a := s.create("a@example.org", id.RoleCitizen, s.wardA, s.now)
	b := s.create("b@example.org", id.RoleCitizen, s.wardB, s.now)
	gone := s.create("c@example.org", id.RoleCitizen, s.wardA, s.now)
	s.create("clerk@city.gov", id.RoleStaff, s.wardA, s.now)
	_, err := s.store.Update(ctx, gone.ID, func(u *models.User) error { return u.Deactivate(s.now) })
	s.Require().NoError(err)

	ids, err := s.store.ListIDs(ctx, id.RoleCitizen, s.wardA)
	s.Require().NoError(err)
	s.Equal([]id.UserID{a.ID}, ids)

	ids, err = s.store.ListIDs(ctx, id.RoleCitizen, id.WardID{})
	s.Require().NoError(err)
	s.ElementsMatch([]id.UserID{a.ID, b.ID}, ids)
}
