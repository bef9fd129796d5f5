package schema

// UserVerificationTokenTable represents the 'users.verificationtoken' table.
//
// Token is the purpose discriminator (e.g. "password_reset"); the pair
// (Identifier, Token) is the primary key.
type UserVerificationTokenTable struct {
	Table      string
	Identifier string
	Token      string
	Code       string
	ExpiresAt  string
	Attempts   string
}

// UserVerificationToken is the schema definition for users.verificationtoken
var UserVerificationToken = UserVerificationTokenTable{
	Table:      "users.verificationtoken",
	Identifier: "identifier",
	Token:      "token",
	Code:       "code",
	ExpiresAt:  "expiresat",
	Attempts:   "attempts",
}

// Columns returns all standard column names
func (t UserVerificationTokenTable) Columns() []string {
	return []string{t.Identifier, t.Token, t.Code, t.ExpiresAt, t.Attempts}
}
