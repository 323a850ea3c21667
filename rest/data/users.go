package data

import (
	"context"
	"time"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/model"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/anser/db"
	"github.com/pkg/errors"
)

/////////////////////////////
// DBConnector Implementation
/////////////////////////////

func (dbc *DBConnector) Login(ctx context.Context, email, role string) (*dbmodel.User, error) {
	if dbmodel.NormalizeEmail(email) == "" {
		return nil, badRequest("email is required")
	}

	u, err := dbmodel.Login(ctx, dbc.env, email, role)
	if err != nil {
		return nil, internalError(err, "problem logging in '%s'", email)
	}
	return u, nil
}

func (dbc *DBConnector) FindUserByID(ctx context.Context, id int) (*dbmodel.User, error) {
	u := &dbmodel.User{ID: id}
	u.Setup(dbc.env)
	if err := u.Find(ctx); err != nil {
		return nil, findError(err, "user %d", id)
	}
	return u, nil
}

func (dbc *DBConnector) FindUserByAPIKey(ctx context.Context, email, key string) (*dbmodel.User, error) {
	if key == "" {
		return nil, notFound("no user with that key")
	}

	u, err := dbmodel.FindUserByAPIKey(ctx, dbc.env, key)
	if err != nil {
		if db.ResultsNotFound(errors.Cause(err)) {
			return nil, notFound("no user with that key")
		}
		return nil, internalError(err, "problem finding user by key")
	}
	if u.Email != dbmodel.NormalizeEmail(email) {
		return nil, notFound("no user with that key")
	}
	return u, nil
}

func (dbc *DBConnector) CreateAPIKey(ctx context.Context, u *dbmodel.User) (*model.APIUserKey, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}
	u.Setup(dbc.env)
	key, err := u.SetAPIKey(ctx)
	if err != nil {
		return nil, internalError(err, "problem creating key for user %d", u.ID)
	}
	return &model.APIUserKey{User: u.Email, Key: key}, nil
}

///////////////////////////////
// MockConnector Implementation
///////////////////////////////

func (mc *MockConnector) Login(_ context.Context, email, role string) (*dbmodel.User, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	email = dbmodel.NormalizeEmail(email)
	if email == "" {
		return nil, badRequest("email is required")
	}
	role = dbmodel.NormalizeRole(role)
	if mc.Users == nil {
		mc.Users = map[int]dbmodel.User{}
	}

	for id, u := range mc.Users {
		if u.Email == email {
			u.Role = role
			mc.Users[id] = u
			return &u, nil
		}
	}

	u := dbmodel.User{
		ID:        mc.nextID(),
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	mc.Users[u.ID] = u
	return &u, nil
}

func (mc *MockConnector) FindUserByID(_ context.Context, id int) (*dbmodel.User, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	u, ok := mc.Users[id]
	if !ok {
		return nil, notFound("user %d not found", id)
	}
	return &u, nil
}

func (mc *MockConnector) FindUserByAPIKey(_ context.Context, email, key string) (*dbmodel.User, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if key == "" {
		return nil, notFound("no user with that key")
	}
	for _, u := range mc.Users {
		if u.APIKey == key && u.Email == dbmodel.NormalizeEmail(email) {
			return &u, nil
		}
	}
	return nil, notFound("no user with that key")
}

func (mc *MockConnector) CreateAPIKey(_ context.Context, u *dbmodel.User) (*model.APIUserKey, error) {
	if err := requireUser(u); err != nil {
		return nil, err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	stored, ok := mc.Users[u.ID]
	if !ok {
		return nil, notFound("user %d not found", u.ID)
	}
	stored.APIKey = utility.RandomString()
	mc.Users[u.ID] = stored
	u.APIKey = stored.APIKey
	return &model.APIUserKey{User: stored.Email, Key: stored.APIKey}, nil
}
