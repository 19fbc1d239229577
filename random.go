package auth

import (
	"crypto/rand"
	"encoding/base64"

	goerrors "github.com/goliatone/go-errors"
)

const (
	sessionTokenBytes   = 32
	singleUseTokenBytes = 32
)

// newOpaqueToken returns a URL-safe random string with n bytes of entropy.
// Handles minted from it are unguessable; there is no structure to forge.
func newOpaqueToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
