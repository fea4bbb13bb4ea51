package identity

import (
	"crypto/subtle"
	"time"

	"sampleapp/cmd/security/token"
)

// saltTimeLayout renders the salt seed timestamp, e.g. "2011-05-01 12:00:00 UTC".
const saltTimeLayout = "2006-01-02 15:04:05 UTC"

// MakeSalt derives a new user's salt from the creation time and the password.
//
// Known weakness: the seed is the wall clock plus the password, not CSPRNG
// output, so salts are predictable to anyone who knows both. Stored rows
// depend on this exact scheme; it is kept as is.
func MakeSalt(now time.Time, password string) string {
	return token.HashSHA256Hex(now.UTC().Format(saltTimeLayout) + "--" + password)
}

// EncryptPassword returns the stored digest of password under salt.
func EncryptPassword(salt, password string) string {
	return token.HashSHA256Hex(salt + "--" + password)
}

// HasPassword recomputes the digest of submitted under the user's salt and
// compares it with the stored encrypted password.
func (u User) HasPassword(submitted string) bool {
	return ctEqHex64(u.EncryptedPassword, EncryptPassword(u.Salt, submitted))
}

// ctEqHex64 compares two expected 64-char hex strings in constant time.
// Rejects if either length != 64.
func ctEqHex64(a, b string) bool {
	if len(a) != 64 || len(b) != 64 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
