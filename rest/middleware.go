package rest

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/discovery-tools/scout"
	dbmodel "github.com/discovery-tools/scout/model"
	"github.com/discovery-tools/scout/rest/data"
	"github.com/evergreen-ci/gimlet"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

const (
	userCacheSize = 1024
	userCacheTTL  = time.Minute
)

type userContextKey struct{}

func setUser(ctx context.Context, u *dbmodel.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// getUser returns the user attached to the request, or nil for anonymous
// requests.
func getUser(ctx context.Context) *dbmodel.User {
	u, ok := ctx.Value(userContextKey{}).(*dbmodel.User)
	if !ok {
		return nil
	}
	return u
}

type cachedUser struct {
	user   dbmodel.User
	loaded time.Time
}

// userCache holds recently resolved users by id. Entries expire so that role
// changes made by another process are picked up.
type userCache struct {
	cache *lru.Cache[int, cachedUser]
	ttl   time.Duration
}

func newUserCache(size int, ttl time.Duration) (*userCache, error) {
	cache, err := lru.New[int, cachedUser](size)
	if err != nil {
		return nil, errors.Wrap(err, "problem creating user cache")
	}
	return &userCache{cache: cache, ttl: ttl}, nil
}

func (c *userCache) get(id int) (*dbmodel.User, bool) {
	entry, ok := c.cache.Get(id)
	if !ok {
		return nil, false
	}
	if time.Since(entry.loaded) > c.ttl {
		c.cache.Remove(id)
		return nil, false
	}
	u := entry.user
	return &u, true
}

func (c *userCache) add(u *dbmodel.User) {
	c.cache.Add(u.ID, cachedUser{user: *u, loaded: time.Now()})
}

func (c *userCache) remove(id int) { c.cache.Remove(id) }

type userMiddleware struct {
	sc     data.Connector
	secret string
	users  *userCache
}

// newUserMiddleware returns a gimlet.Middleware that attaches the requesting
// user to the request context. Users are identified by the session cookie,
// then the Api-User and Api-Key headers, then a bearer token. Requests that
// match none of these pass through anonymously.
func newUserMiddleware(sc data.Connector, secret string, users *userCache) gimlet.Middleware {
	return &userMiddleware{
		sc:     sc,
		secret: secret,
		users:  users,
	}
}

func (m *userMiddleware) ServeHTTP(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	ctx := r.Context()
	if u := m.resolve(ctx, r); u != nil {
		r = r.WithContext(setUser(ctx, u))
	}
	next(rw, r)
}

func (m *userMiddleware) resolve(ctx context.Context, r *http.Request) *dbmodel.User {
	if cookie, err := r.Cookie(scout.SessionCookie); err == nil && cookie.Value != "" {
		if u := m.fromToken(ctx, cookie.Value); u != nil {
			return u
		}
	}

	name, key := r.Header.Get(scout.APIUserHeader), r.Header.Get(scout.APIKeyHeader)
	if name != "" && key != "" {
		u, err := m.sc.FindUserByAPIKey(ctx, name, key)
		if err == nil {
			m.users.add(u)
			return u
		}
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"message": "rejected api key",
			"user":    name,
		})
	}

	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return m.fromToken(ctx, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
	}
	return nil
}

// fromToken returns nil for invalid tokens and for tokens naming users that
// no longer exist.
func (m *userMiddleware) fromToken(ctx context.Context, token string) *dbmodel.User {
	id, err := parseSession(m.secret, token)
	if err != nil {
		grip.Debug(message.WrapError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"message": "ignoring session token",
		}))
		return nil
	}

	if u, ok := m.users.get(id); ok {
		return u
	}
	u, err := m.sc.FindUserByID(ctx, id)
	if err != nil {
		logFindError(err, message.Fields{
			"request": gimlet.GetRequestID(ctx),
			"message": "session names unknown user",
			"user":    id,
		})
		return nil
	}
	m.users.add(u)
	return u
}
