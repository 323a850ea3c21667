package model

import (
	"context"
	"strings"
	"time"

	"github.com/discovery-tools/scout"
	"github.com/evergreen-ci/utility"
	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/anser/db"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const userCollection = "users"

// User is a person who logs in with an email address. There are no
// passwords: the role is chosen at login time.
type User struct {
	ID        int       `bson:"_id" json:"id"`
	Email     string    `bson:"email" json:"email"`
	Role      string    `bson:"role" json:"role"`
	APIKey    string    `bson:"apikey,omitempty" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`

	env       scout.Environment
	populated bool
}

var (
	dbUserIDKey     = bsonutil.MustHaveTag(User{}, "ID")
	dbUserEmailKey  = bsonutil.MustHaveTag(User{}, "Email")
	dbUserRoleKey   = bsonutil.MustHaveTag(User{}, "Role")
	dbUserAPIKeyKey = bsonutil.MustHaveTag(User{}, "APIKey")
)

func (u *User) Setup(env scout.Environment) { u.env = env }
func (u *User) IsNil() bool                  { return !u.populated }
func (u *User) IsAdmin() bool                { return u != nil && u.Role == scout.RoleAdmin }

// Find loads the user by id.
func (u *User) Find(ctx context.Context) error {
	if u.env == nil {
		return errors.New("cannot find with a nil environment")
	}

	u.populated = false
	err := u.env.GetDB().Collection(userCollection).FindOne(ctx, bson.M{dbUserIDKey: u.ID}).Decode(u)
	if db.ResultsNotFound(err) {
		return errors.Wrapf(err, "could not find user %d in the database", u.ID)
	} else if err != nil {
		return errors.Wrap(err, "problem finding user")
	}

	u.populated = true
	return nil
}

// SaveNew inserts the user, allocating an id when one is not set.
func (u *User) SaveNew(ctx context.Context) error {
	if !u.populated {
		return errors.New("cannot save unpopulated user")
	}
	if u.env == nil {
		return errors.New("cannot save with a nil environment")
	}

	if u.ID == 0 {
		id, err := nextID(ctx, u.env, userCollection)
		if err != nil {
			return errors.WithStack(err)
		}
		u.ID = id
	}

	insertResult, err := u.env.GetDB().Collection(userCollection).InsertOne(ctx, u)
	grip.DebugWhen(err == nil, message.Fields{
		"collection":   userCollection,
		"id":           u.ID,
		"email":        u.Email,
		"insertResult": insertResult,
		"op":           "save new user",
	})

	return errors.Wrapf(err, "problem saving user %s", u.Email)
}

// SetRole updates the user's role in the database.
func (u *User) SetRole(ctx context.Context, role string) error {
	if u.env == nil {
		return errors.New("cannot update with a nil environment")
	}
	if !utility.StringSliceContains(scout.ValidRoles(), role) {
		return errors.Errorf("role '%s' is not valid", role)
	}

	res, err := u.env.GetDB().Collection(userCollection).UpdateOne(ctx,
		bson.M{dbUserIDKey: u.ID},
		bson.M{"$set": bson.M{dbUserRoleKey: role}},
	)
	if err != nil {
		return errors.Wrapf(err, "problem updating role for user %d", u.ID)
	}
	if res.MatchedCount == 0 {
		return errors.Errorf("could not find user %d in the database", u.ID)
	}

	u.Role = role
	return nil
}

// SetAPIKey generates and stores a new API key for the user.
func (u *User) SetAPIKey(ctx context.Context) (string, error) {
	if u.env == nil {
		return "", errors.New("cannot update with a nil environment")
	}

	k := utility.RandomString()
	res, err := u.env.GetDB().Collection(userCollection).UpdateOne(ctx,
		bson.M{dbUserIDKey: u.ID},
		bson.M{"$set": bson.M{dbUserAPIKeyKey: k}},
	)
	if err != nil {
		return "", errors.Wrap(err, "problem updating user key document")
	}
	if res.MatchedCount == 0 {
		return "", errors.New("could not find user in the database")
	}

	u.APIKey = k
	return k, nil
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeRole lowercases the role, falling back to bizdev for anything
// unknown.
func NormalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if !utility.StringSliceContains(scout.ValidRoles(), role) {
		return scout.RoleBizDev
	}
	return role
}

// FindUserByEmail returns the user with the given (normalized) email.
func FindUserByEmail(ctx context.Context, env scout.Environment, email string) (*User, error) {
	u := &User{}
	err := env.GetDB().Collection(userCollection).FindOne(ctx, bson.M{dbUserEmailKey: NormalizeEmail(email)}).Decode(u)
	if err != nil {
		return nil, errors.Wrapf(err, "problem finding user '%s'", email)
	}
	u.Setup(env)
	u.populated = true
	return u, nil
}

// FindUserByAPIKey returns the user owning the key, or a not found error.
func FindUserByAPIKey(ctx context.Context, env scout.Environment, key string) (*User, error) {
	if key == "" {
		return nil, errors.New("api key must not be empty")
	}

	u := &User{}
	err := env.GetDB().Collection(userCollection).FindOne(ctx, bson.M{dbUserAPIKeyKey: key}).Decode(u)
	if err != nil {
		return nil, errors.Wrap(err, "problem finding user by key")
	}
	u.Setup(env)
	u.populated = true
	return u, nil
}

// Login returns the user with the email, creating it when it does not exist.
// An existing user whose role differs gets the new role.
func Login(ctx context.Context, env scout.Environment, email, role string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, errors.New("email is required")
	}
	role = NormalizeRole(role)

	u, err := FindUserByEmail(ctx, env, email)
	if err == nil {
		if u.Role != role {
			if err = u.SetRole(ctx, role); err != nil {
				return nil, errors.WithStack(err)
			}
		}
		return u, nil
	} else if !db.ResultsNotFound(errors.Cause(err)) {
		return nil, errors.WithStack(err)
	}

	u = &User{
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
		populated: true,
	}
	u.Setup(env)
	if err = u.SaveNew(ctx); err != nil {
		// two logins for the same new address may race on the unique
		// email index.
		if mongo.IsDuplicateKeyError(errors.Cause(err)) {
			return Login(ctx, env, email, role)
		}
		return nil, errors.WithStack(err)
	}

	return u, nil
}
