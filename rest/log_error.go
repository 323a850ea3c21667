package rest

import (
	"net/http"

	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/message"
)

// logFindError logs at info for missing resources and rejected callers, and
// at error for everything else.
func logFindError(err error, fields message.Fields) {
	logLevel := level.Error
	if errResp, ok := err.(gimlet.ErrorResponse); ok && errResp.StatusCode < http.StatusInternalServerError {
		logLevel = level.Info
	}
	grip.Log(logLevel, message.WrapError(err, fields))
}

func logRequestError(r *http.Request, err error) {
	grip.Error(message.WrapError(err, message.Fields{
		"method":  r.Method,
		"remote":  r.RemoteAddr,
		"request": gimlet.GetRequestID(r.Context()),
		"path":    r.URL.Path,
	}))
}
