package validation

import (
	"fmt"
	"strings"

	"github.com/bekosirs/bekoctl/internal/apierrors"
	"github.com/bekosirs/bekoctl/internal/models"
)

// Field is a named input value
type Field struct {
	Name  string
	Value string
}

// Required returns a validation error for the first empty field
func Required(fields ...Field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			return apierrors.Validation(f.Name, f.Name+" is required")
		}
	}
	return nil
}

// ValidateEmail checks the address has the local@domain.tld shape
func ValidateEmail(email string) error {
	if !models.ValidEmail(email) {
		return apierrors.Validation("email", "enter a valid email address")
	}
	return nil
}

// ValidateNewPassword checks the new password and its confirmation
func ValidateNewPassword(password, confirm string) error {
	if password != confirm {
		return apierrors.Validation("new_password", "new passwords do not match")
	}
	if !models.ValidPassword(password) {
		return apierrors.Validation("new_password", fmt.Sprintf("new password must be at least %d characters", models.MinPasswordLength))
	}
	return nil
}
