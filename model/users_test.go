package model

import (
	"context"
	"testing"

	"github.com/discovery-tools/scout"
	"github.com/mongodb/anser/db"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type UserTestSuite struct {
	ctx    context.Context
	cancel context.CancelFunc
	env    scout.Environment
	suite.Suite
}

func TestUser(t *testing.T) {
	suite.Run(t, &UserTestSuite{})
}

func (s *UserTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.env = newTestEnv(s.ctx, s.T())
	s.Require().NoError(EnsureIndexes(s.ctx, s.env))
}

func (s *UserTestSuite) TearDownTest() {
	tearDownEnv(s.ctx, s.T(), s.env)
	s.cancel()
}

func (s *UserTestSuite) TestNormalize() {
	s.Equal("a@b.io", NormalizeEmail("  A@B.io "))
	s.Equal(scout.RoleAdmin, NormalizeRole(" ADMIN "))
	s.Equal(scout.RoleOutreach, NormalizeRole("outreach"))
	s.Equal(scout.RoleBizDev, NormalizeRole("ceo"))
	s.Equal(scout.RoleBizDev, NormalizeRole(""))
}

func (s *UserTestSuite) TestLoginCreatesUser() {
	u, err := Login(s.ctx, s.env, " New@Example.com", "Marketing")
	s.Require().NoError(err)
	s.NotZero(u.ID)
	s.Equal("new@example.com", u.Email)
	s.Equal(scout.RoleMarketing, u.Role)
	s.False(u.IsNil())

	found := &User{ID: u.ID}
	found.Setup(s.env)
	s.Require().NoError(found.Find(s.ctx))
	s.Equal(u.Email, found.Email)
}

func (s *UserTestSuite) TestLoginUpdatesRole() {
	first, err := Login(s.ctx, s.env, "role@example.com", "bizdev")
	s.Require().NoError(err)

	second, err := Login(s.ctx, s.env, "ROLE@example.com", "admin")
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal(scout.RoleAdmin, second.Role)
	s.True(second.IsAdmin())

	found, err := FindUserByEmail(s.ctx, s.env, "role@example.com")
	s.Require().NoError(err)
	s.Equal(scout.RoleAdmin, found.Role)
}

func (s *UserTestSuite) TestLoginUnknownRoleFallsBack() {
	u, err := Login(s.ctx, s.env, "x@example.com", "wizard")
	s.Require().NoError(err)
	s.Equal(scout.RoleBizDev, u.Role)
}

func (s *UserTestSuite) TestLoginRequiresEmail() {
	_, err := Login(s.ctx, s.env, "   ", "admin")
	s.Error(err)
}

func (s *UserTestSuite) TestAPIKey() {
	u, err := Login(s.ctx, s.env, "key@example.com", "")
	s.Require().NoError(err)

	key, err := u.SetAPIKey(s.ctx)
	s.Require().NoError(err)
	s.NotEmpty(key)
	s.Equal(key, u.APIKey)

	found, err := FindUserByAPIKey(s.ctx, s.env, key)
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)

	_, err = FindUserByAPIKey(s.ctx, s.env, "nope")
	s.True(db.ResultsNotFound(errors.Cause(err)))

	_, err = FindUserByAPIKey(s.ctx, s.env, "")
	s.Error(err)
}

func (s *UserTestSuite) TestSetRole() {
	u, err := Login(s.ctx, s.env, "promote@example.com", "")
	s.Require().NoError(err)

	s.Error(u.SetRole(s.ctx, "king"))
	s.Require().NoError(u.SetRole(s.ctx, scout.RoleAdmin))
	s.True(u.IsAdmin())

	missing := &User{ID: 9999}
	missing.Setup(s.env)
	s.Error(missing.SetRole(s.ctx, scout.RoleAdmin))
}
