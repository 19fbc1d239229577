package auth

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash. bcrypt is deliberately slow;
// the cost factor is fixed by build (see passwordHashCost) and not caller
// tunable. Hashing is CPU bound but safe to run from any number of
// concurrent goroutines.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if goerrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// DefaultPasswordAuthenticator is the bcrypt-backed PasswordAuthenticator
// used unless the manager is given another strategy.
type DefaultPasswordAuthenticator struct{}

var _ PasswordAuthenticator = DefaultPasswordAuthenticator{}

func (DefaultPasswordAuthenticator) HashPassword(password string) (string, error) {
	return HashPassword(password)
}

func (DefaultPasswordAuthenticator) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}

// RandomPasswordHash is a temporary password
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
