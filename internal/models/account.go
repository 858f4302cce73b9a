package models

import (
	"strings"
)

// User is an account held by the stub service. PasswordHash is a bcrypt hash
// and never leaves the server.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
}

// Assignment links a catalog product to the user who registered it
type Assignment struct {
	UserID       int    `json:"user_id"`
	ProductID    int    `json:"product_id"`
	AssignedDate string `json:"assigned_date"`
}

// Dataset is the full state of the stub service as persisted on disk
type Dataset struct {
	Users       []*User      `json:"users"`
	Products    []Product    `json:"products"`
	Assignments []Assignment `json:"assignments"`
}

// NewDataset creates an empty dataset
func NewDataset() *Dataset {
	return &Dataset{
		Users:       []*User{},
		Products:    []Product{},
		Assignments: []Assignment{},
	}
}

// NormalizeEmail lowercases and trims an address so lookups ignore case
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterResponse is returned by POST /api/register/ on success
type RegisterResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// MessageResponse carries a human readable outcome
type MessageResponse struct {
	Message string `json:"message"`
}
