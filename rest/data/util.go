package data

import (
	"fmt"
	"net/http"

	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/anser/db"
	"github.com/pkg/errors"
)

func notFound(format string, args ...interface{}) error {
	return gimlet.ErrorResponse{
		StatusCode: http.StatusNotFound,
		Message:    fmt.Sprintf(format, args...),
	}
}

func badRequest(format string, args ...interface{}) error {
	return gimlet.ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Message:    fmt.Sprintf(format, args...),
	}
}

func internalError(err error, format string, args ...interface{}) error {
	return gimlet.ErrorResponse{
		StatusCode: http.StatusInternalServerError,
		Message:    errors.Wrapf(err, format, args...).Error(),
	}
}

// findError maps a lookup failure to a 404 when nothing matched and a 500
// otherwise.
func findError(err error, format string, args ...interface{}) error {
	if db.ResultsNotFound(errors.Cause(err)) {
		return notFound(format+" not found", args...)
	}
	return internalError(err, "problem finding "+format, args...)
}

func requireUser(u *dbmodel.User) error {
	if u == nil {
		return gimlet.ErrorResponse{
			StatusCode: http.StatusUnauthorized,
			Message:    "not logged in",
		}
	}
	return nil
}

// requireAdmin rejects everyone but admins.
func requireAdmin(u *dbmodel.User, action string) error {
	if err := requireUser(u); err != nil {
		return err
	}
	if !u.IsAdmin() {
		return gimlet.ErrorResponse{
			StatusCode: http.StatusForbidden,
			Message:    fmt.Sprintf("only admins may %s", action),
		}
	}
	return nil
}

// hypothesisNotFound is also returned for hypotheses the user may not see,
// so their existence does not leak.
func hypothesisNotFound(id int) error {
	return notFound("hypothesis %d not found", id)
}
