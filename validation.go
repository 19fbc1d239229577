package auth

import (
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/nyaruka/phonenumbers"
)

// MinPasswordLength is the lower bound enforced by the password policy.
const MinPasswordLength = 8

// defaultPhoneRegion is used to parse phone numbers given without a country
// prefix. The platform launched for the Moroccan market.
const defaultPhoneRegion = "MA"

// RegisterInput carries everything needed to create an account. Email is
// normalized before validation; Role is normalized through ParseRole.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

// Validate checks the input shape. Everything here is locally decidable;
// nothing touches the store.
func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.By(passwordPolicyRule)),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Phone, validation.By(phoneRule)),
	)
}

// ValidatePassword is the password policy as a pure predicate: minimum
// length plus at least one upper-case letter, one lower-case letter, one
// digit, and one special character.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return goerrors.New("password must be at least 8 characters long", goerrors.CategoryValidation)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return goerrors.New("password must contain an upper-case letter", goerrors.CategoryValidation)
	case !hasLower:
		return goerrors.New("password must contain a lower-case letter", goerrors.CategoryValidation)
	case !hasDigit:
		return goerrors.New("password must contain a digit", goerrors.CategoryValidation)
	case !hasSpecial:
		return goerrors.New("password must contain a special character", goerrors.CategoryValidation)
	}

	return nil
}

func passwordPolicyRule(value any) error {
	password, _ := value.(string)
	return ValidatePassword(password)
}

// phoneRule accepts an empty phone (the field is optional) and otherwise
// requires a number that parses and validates for the default region.
func phoneRule(value any) error {
	phone, _ := value.(string)
	if phone == "" {
		return nil
	}

	num, err := phonenumbers.Parse(phone, defaultPhoneRegion)
	if err != nil {
		return goerrors.New("invalid phone number", goerrors.CategoryValidation)
	}

	if !phonenumbers.IsValidNumber(num) {
		return goerrors.New("invalid phone number", goerrors.CategoryValidation)
	}

	return nil
}
