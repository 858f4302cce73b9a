package models

import (
	"strings"
)

// Category groups products in the catalog
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Product is a catalog entry as returned by the service. AssignedDate is only
// set on entries from the caller's own product list.
type Product struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand"`
	Price        string    `json:"price"`
	Image        string    `json:"image"`
	Category     *Category `json:"category"`
	Status       string    `json:"status"`
	Description  string    `json:"description"`
	AssignedDate string    `json:"assigned_date,omitempty"`
}

// CategoryName returns the category name or "-" for uncategorized products
func (p *Product) CategoryName() string {
	if p.Category == nil || p.Category.Name == "" {
		return "-"
	}
	return p.Category.Name
}

// FilterProducts returns products whose name contains query, ignoring case.
// A blank query returns the input unchanged.
func FilterProducts(products []Product, query string) []Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return products
	}

	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), query) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// LoginRequest is the body of POST /api/token/
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair is the response of POST /api/token/; Refresh may be empty
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// RegisterRequest is the body of POST /api/register/
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// ChangePasswordRequest is the body of POST /api/change-password/
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangeEmailRequest is the body of POST /api/change-email/
type ChangeEmailRequest struct {
	NewEmail string `json:"new_email"`
	Password string `json:"password"`
}
