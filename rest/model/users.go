package model

import (
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/pkg/errors"
)

// APIUser is the public view of a user. The API key is never included.
type APIUser struct {
	ID        int     `json:"id"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	IsAdmin   bool    `json:"is_admin"`
	CreatedAt APITime `json:"created_at"`
}

func (a *APIUser) Import(i interface{}) error {
	switch u := i.(type) {
	case dbmodel.User:
		a.ID = u.ID
		a.Email = u.Email
		a.Role = u.Role
		a.IsAdmin = u.IsAdmin()
		a.CreatedAt = NewTime(u.CreatedAt)
	case *dbmodel.User:
		if u == nil {
			return errors.New("cannot convert nil user")
		}
		return a.Import(*u)
	default:
		return errors.Errorf("incorrect type %T when converting to APIUser type", i)
	}

	return nil
}

// APILogin is the body of a login request.
type APILogin struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// APIUserKey is returned once, when a key is generated.
type APIUserKey struct {
	User string `json:"user"`
	Key  string `json:"key"`
}
