package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validation bounds.
const (
	MinFullNameLength           = 2
	MaxFullNameLength           = 100
	MinPasswordLength           = 8
	MinGigTitleLength           = 3
	MaxGigTitleLength           = 200
	MinGigDescriptionLength     = 10
	MaxGigDescriptionLength     = 5000
	MinProjectTitleLength       = 3
	MaxProjectTitleLength       = 120
	MinProjectDescriptionLength = 10
	MaxMessageLength            = 5000
	MinOrderAmountCents         = 1000
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	phoneRegex       = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// ValidateLength checks the rune length of a field.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateEmail checks the email format.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("invalid email format")
	}

	localPart, domainPart := parts[0], parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("email local part must be 1 to 64 characters")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("email domain must be 1 to 255 characters")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("email local part contains invalid characters")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("email domain has an invalid format")
	}

	return nil
}

// ValidatePassword enforces the signup password policy: at least 8
// characters with an upper-case letter, a lower-case letter and a digit.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one upper-case letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lower-case letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one digit")
	}

	return nil
}

// ValidatePhone checks for an E.164-shaped phone number.
func ValidatePhone(phone string) error {
	if phone == "" {
		return fmt.Errorf("phone is required")
	}
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("phone must be in international format")
	}
	return nil
}

// ValidateFullName checks the display name bounds.
func ValidateFullName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("full name is required")
	}
	return ValidateLength("full name", name, MinFullNameLength, MaxFullNameLength)
}

// ValidateRole checks the signup role against the closed role set.
func ValidateRole(role string) error {
	switch role {
	case "client", "freelancer", "admin", "moderator":
		return nil
	}
	return fmt.Errorf("role must be client, freelancer, admin or moderator")
}

// ValidateNonEmpty checks that the value is not blank.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}
