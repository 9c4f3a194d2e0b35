package model

import (
	"crypto/subtle"
	"strconv"

	"github.com/0xsj/overwatch-pkg/security"
)

// DeriveToken returns the email confirmation token for r.
// It is a SHA-256 hex digest of createdAt (epoch seconds), owner and credential,
// so it can be recomputed from the stored record without keeping a secret.
func DeriveToken(r NickRecord) string {
	input := strconv.FormatInt(r.CreatedAtUnix(), 10) + r.owner + r.credential
	return security.SHA256Hex([]byte(input))
}

// VerifyToken reports whether supplied equals the token derived from r.
// It does not look at r's state.
func VerifyToken(r NickRecord, supplied string) bool {
	expected := DeriveToken(r)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1
}
