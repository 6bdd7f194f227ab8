package api

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Field limits for users and products.
const (
	MinNameLength        = 2
	MaxUserNameLength    = 50
	MaxEmailLength       = 100
	MinPasswordLength    = 6
	MaxPasswordLength    = 100
	MaxPasswordBytes     = 72 // bcrypt input limit
	MaxProductNameLength = 100
	MaxDescriptionLength = 500
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string
	Message string
}

// FieldErrors collects validation failures in field order.
type FieldErrors []FieldError

func (fe *FieldErrors) add(field, format string, args ...any) {
	*fe = append(*fe, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err converts the collected failures into a single invalid_request APIError,
// or nil if there were none. The message has the form "field: reason, field: reason".
func (fe FieldErrors) Err() *APIError {
	if len(fe) == 0 {
		return nil
	}
	parts := make([]string, len(fe))
	for i, e := range fe {
		parts[i] = e.Field + ": " + e.Message
	}
	return NewInvalidRequestError(fe[0].Field, strings.Join(parts, ", "))
}

// ValidateLogin checks a sign-in request.
func ValidateLogin(req *LoginRequest) *APIError {
	var errs FieldErrors
	checkEmail(&errs, req.Email)
	if req.Password == "" {
		errs.add("password", "Password is required")
	} else {
		checkLength(&errs, "password", req.Password, MinPasswordLength, MaxPasswordLength)
	}
	return errs.Err()
}

// ValidateUserCreate checks a user creation request.
func ValidateUserCreate(req *UserCreateRequest) *APIError {
	var errs FieldErrors
	checkName(&errs, req.Name, MaxUserNameLength)
	checkEmail(&errs, req.Email)
	checkPassword(&errs, req.Password)
	if req.Role != "" && !IsValidRole(req.Role) {
		errs.add("role", "Role must be USER or ADMIN")
	}
	return errs.Err()
}

// ValidateUserUpdate checks the fields present in a user update request.
func ValidateUserUpdate(req *UserUpdateRequest) *APIError {
	var errs FieldErrors
	if req.Name != nil {
		checkName(&errs, *req.Name, MaxUserNameLength)
	}
	if req.Password != nil {
		checkPassword(&errs, *req.Password)
	}
	if req.Role != nil && !IsValidRole(*req.Role) {
		errs.add("role", "Role must be USER or ADMIN")
	}
	return errs.Err()
}

// ValidateProduct checks a product creation request.
func ValidateProduct(req *ProductRequest) *APIError {
	var errs FieldErrors
	checkName(&errs, req.Name, MaxProductNameLength)
	checkDescription(&errs, req.Description)
	checkPrice(&errs, req.Price)
	return errs.Err()
}

// ValidateProductUpdate checks the fields present in a product update request.
func ValidateProductUpdate(req *ProductUpdateRequest) *APIError {
	var errs FieldErrors
	if req.Name != nil {
		checkName(&errs, *req.Name, MaxProductNameLength)
	}
	if req.Description != nil {
		checkDescription(&errs, *req.Description)
	}
	if req.Price != nil {
		checkPrice(&errs, *req.Price)
	}
	return errs.Err()
}

// NormalizeEmail lowercases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkName(errs *FieldErrors, name string, maxLen int) {
	if strings.TrimSpace(name) == "" {
		errs.add("name", "Name is required")
		return
	}
	checkLength(errs, "name", name, MinNameLength, maxLen)
}

func checkEmail(errs *FieldErrors, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.add("email", "Email is required")
		return
	}
	if len(email) > MaxEmailLength {
		errs.add("email", "Email must be at most %d characters", MaxEmailLength)
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		errs.add("email", "Email should be valid")
	}
}

func checkPassword(errs *FieldErrors, password string) {
	if password == "" {
		errs.add("password", "Password is required")
		return
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		errs.add("password", "Password must be at least %d characters", MinPasswordLength)
		return
	}
	if len(password) > MaxPasswordBytes {
		errs.add("password", "Password must be at most %d bytes", MaxPasswordBytes)
	}
}

func checkDescription(errs *FieldErrors, description string) {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		errs.add("description", "Description must be at most %d characters", MaxDescriptionLength)
	}
}

func checkPrice(errs *FieldErrors, price float64) {
	if price <= 0 {
		errs.add("price", "Price must be positive")
	}
}

func checkLength(errs *FieldErrors, field, value string, minLen, maxLen int) {
	n := utf8.RuneCountInString(value)
	if n < minLen || n > maxLen {
		errs.add(field, "%s must be between %d and %d characters", capitalize(field), minLen, maxLen)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
