/*
Package scout holds application level constants and shared resources for
the scout hypothesis tracker.
*/
package scout

import "time"

// BuildRevision stores the commit in the git repository at build time and is
// specified with -ldflags at build time.
var BuildRevision = ""

const (
	SessionCookie = "scout-session"
	APIUserHeader = "Api-User"
	APIKeyHeader  = "Api-Key"

	QueueName = "scout.service"

	DefaultSecretKey  = "dev-secret-key-change-me"
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 8000
	DefaultSessionTTL = 7 * 24 * time.Hour

	ShortDateFormat = "2006-01-02"
)

// Roles a user may hold. Anything else given at login falls back to
// RoleBizDev.
const (
	RoleAdmin     = "admin"
	RoleBizDev    = "bizdev"
	RoleMarketing = "marketing"
	RoleOutreach  = "outreach"
)

// ValidRoles lists the roles accepted at login.
func ValidRoles() []string {
	return []string{RoleAdmin, RoleBizDev, RoleMarketing, RoleOutreach}
}
