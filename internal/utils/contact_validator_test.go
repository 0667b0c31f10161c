package utils

import (
	"testing"
)

func TestValidatePhoneNumber(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		wantCode string
	}{
		{"Valid US number", "+14155550100", ""},
		{"Valid Spanish number", "+34612345678", ""},
		{"Surrounding spaces", "  +34612345678 ", ""},
		{"Missing plus", "14155550100", "MISSING_COUNTRY_CODE"},
		{"Too short", "+1415", "INVALID_LENGTH"},
		{"Too long", "+1234567890123456", "INVALID_LENGTH"},
		{"Leading zero", "+0415555010", "INVALID_COUNTRY_CODE"},
		{"Letters", "+1415555ABCD", "INVALID_FORMAT"},
		{"Dashes", "+1-415-555-0100", "INVALID_FORMAT"},
		{"Empty", "", "MISSING_COUNTRY_CODE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhoneNumber(tt.number)
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("ValidatePhoneNumber(%q) unexpected error: %v", tt.number, err)
				}
				return
			}
			cerr, ok := err.(*ContactValidationError)
			if !ok {
				t.Fatalf("ValidatePhoneNumber(%q) = %v; expected *ContactValidationError", tt.number, err)
			}
			if cerr.Code != tt.wantCode {
				t.Errorf("ValidatePhoneNumber(%q) code = %s; expected %s", tt.number, cerr.Code, tt.wantCode)
			}
		})
	}
}

func TestValidateEmailAddress(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		hasError bool
	}{
		{"Valid email", "ops@hotel.example", false},
		{"Valid email with subdomain", "night.manager@mail.hotel.example", false},
		{"Display name form", "Ops <ops@hotel.example>", true},
		{"Missing @", "ops.hotel.example", true},
		{"Double @", "ops@@hotel.example", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmailAddress(tt.email)
			if tt.hasError && err == nil {
				t.Errorf("ValidateEmailAddress(%s) expected error but got none", tt.email)
			}
			if !tt.hasError && err != nil {
				t.Errorf("ValidateEmailAddress(%s) unexpected error: %v", tt.email, err)
			}
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
		hasError bool
	}{
		{"Valid email", "test@example.com", "example.com", false},
		{"Email with uppercase", "TEST@EXAMPLE.COM", "example.com", false},
		{"Email with spaces", "  test@example.com  ", "example.com", false},
		{"No @", "testexample.com", "", true},
		{"Empty domain", "test@", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := extractDomain(tt.email)
			if tt.hasError {
				if err == nil {
					t.Errorf("extractDomain(%s) expected error but got none", tt.email)
				}
				return
			}
			if err != nil {
				t.Errorf("extractDomain(%s) unexpected error: %v", tt.email, err)
			}
			if result != tt.expected {
				t.Errorf("extractDomain(%s) = %s; expected %s", tt.email, result, tt.expected)
			}
		})
	}
}
