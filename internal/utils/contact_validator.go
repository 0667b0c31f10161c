package utils

import (
	"net/mail"
	"strings"
)

// ContactValidationError represents an error while checking an alert recipient
type ContactValidationError struct {
	Message string
	Code    string
}

func (e ContactValidationError) Error() string {
	return e.Message
}

// ValidatePhoneNumber checks that number is in E.164 format, e.g. +14155550100
func ValidatePhoneNumber(number string) error {
	number = strings.TrimSpace(number)
	if !strings.HasPrefix(number, "+") {
		return &ContactValidationError{
			Message: "Phone number must start with + and a country code",
			Code:    "MISSING_COUNTRY_CODE",
		}
	}

	digits := number[1:]
	if len(digits) < 8 || len(digits) > 15 {
		return &ContactValidationError{
			Message: "Phone number must have between 8 and 15 digits",
			Code:    "INVALID_LENGTH",
		}
	}
	if digits[0] == '0' {
		return &ContactValidationError{
			Message: "Country code cannot start with 0",
			Code:    "INVALID_COUNTRY_CODE",
		}
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return &ContactValidationError{
				Message: "Phone number may only contain digits after +",
				Code:    "INVALID_FORMAT",
			}
		}
	}
	return nil
}

// ValidateEmailAddress checks that email is a bare address usable as a recipient
func ValidateEmailAddress(email string) error {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return &ContactValidationError{
			Message: "Invalid email format",
			Code:    "INVALID_FORMAT",
		}
	}

	if _, err := extractDomain(email); err != nil {
		return &ContactValidationError{
			Message: "Could not extract domain from email",
			Code:    "DOMAIN_EXTRACTION_ERROR",
		}
	}
	return nil
}

// extractDomain extracts the domain part from an email address
func extractDomain(email string) (string, error) {
	email = strings.TrimSpace(email)
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return "", &ContactValidationError{Message: "invalid email format", Code: "INVALID_FORMAT"}
	}
	return strings.ToLower(parts[1]), nil
}
