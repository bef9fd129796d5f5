package schema

// UserSessionTable represents the 'users.session' table.
//
// Token holds the hash of the opaque session token, never the raw value.
type UserSessionTable struct {
	Table     string
	Token     string
	UserID    string
	ExpiresAt string
	CreatedAt string
}

// UserSession is the schema definition for users.session
var UserSession = UserSessionTable{
	Table:     "users.session",
	Token:     "token",
	UserID:    "userid",
	ExpiresAt: "expiresat",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t UserSessionTable) Columns() []string {
	return []string{t.Token, t.UserID, t.ExpiresAt, t.CreatedAt}
}
