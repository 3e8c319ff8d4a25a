package rooms

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// InviteCodeBytes is the number of random bytes in an invite code; the
// hex encoding doubles it to 8 characters.
const InviteCodeBytes = 4

// GenerateInviteCode returns a random 8-character uppercase hex code.
func GenerateInviteCode() (string, error) {
	buf := make([]byte, InviteCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

// IsValidInviteCode checks the 8-character uppercase hex format.
func IsValidInviteCode(code string) bool {
	if len(code) != 2*InviteCodeBytes {
		return false
	}
	for _, c := range code {
		if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
