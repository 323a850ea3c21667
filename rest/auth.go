package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/discovery-tools/scout"
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/model"
	"github.com/evergreen-ci/gimlet"
	"github.com/golang-jwt/jwt"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

// signSession returns an HS256 token naming the user that expires after
// ttl.
func signSession(secret string, userID int, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.StandardClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "problem signing session token")
	}
	return token, nil
}

// parseSession validates the token and returns the user id it names.
func parseSession(secret, token string) (int, error) {
	claims := &jwt.StandardClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method '%s'", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "invalid session token")
	}
	if !parsed.Valid {
		return 0, errors.New("invalid session token")
	}

	id, err := strconv.Atoi(claims.Subject)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("session token names invalid user '%s'", claims.Subject)
	}
	return id, nil
}

func sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     scout.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /auth/login

func (s *Service) login(rw http.ResponseWriter, r *http.Request) {
	var err error
	defer func() {
		logRequestError(r, err)
	}()

	creds := model.APILogin{}
	if err = gimlet.GetJSON(r.Body, &creds); err != nil {
		err = errors.Wrap(err, "problem reading login request")
		gimlet.WriteJSONError(rw, gimlet.ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    err.Error(),
		})
		return
	}

	var u *dbmodel.User
	u, err = s.sc.Login(r.Context(), creds.Email, creds.Role)
	if err != nil {
		gimlet.WriteResponse(rw, gimlet.MakeJSONErrorResponder(err))
		return
	}
	s.users.remove(u.ID)

	token, err := signSession(s.Conf.SecretKey, u.ID, s.Conf.SessionTTL, time.Now())
	if err != nil {
		gimlet.WriteResponse(rw, gimlet.MakeJSONInternalErrorResponder(err))
		return
	}

	out := model.APIUser{}
	if err = out.Import(u); err != nil {
		gimlet.WriteResponse(rw, gimlet.MakeJSONInternalErrorResponder(err))
		return
	}

	http.SetCookie(rw, sessionCookie(token, int(s.Conf.SessionTTL.Seconds())))
	grip.Info(message.Fields{
		"message": "user logged in",
		"request": gimlet.GetRequestID(r.Context()),
		"user":    u.Email,
		"role":    u.Role,
	})
	gimlet.WriteJSON(rw, out)
}

///////////////////////////////////////////////////////////////////////////////
//
// POST /auth/logout

func (s *Service) logout(rw http.ResponseWriter, r *http.Request) {
	if u := getUser(r.Context()); u != nil {
		s.users.remove(u.ID)
	}
	http.SetCookie(rw, sessionCookie("", -1))
	gimlet.WriteJSON(rw, struct {
		OK bool `json:"ok"`
	}{OK: true})
}
