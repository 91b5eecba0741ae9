package models

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the structured result of an entity check. An empty
// list means the entity is valid.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, ". ")
}

func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// Err returns nil for an empty list so callers can write `if err := x.Validate().Err()`.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidatePassword checks a plaintext password before it is hashed.
func ValidatePassword(password string) ValidationErrors {
	var errs ValidationErrors
	switch {
	case password == "":
		errs.Add("password", "Password is required")
	case utf8.RuneCountInString(password) < 6:
		errs.Add("password", "Password must be at least 6 characters")
	}
	return errs
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
