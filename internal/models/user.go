package models

import (
	"time"
)

// User is an account of the local password provider. Firebase users never
// touch this type.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"displayName"`
	CreatedAt    time.Time `json:"createdAt"`
}

type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (r *SignupRequest) Validate() FieldErrors {
	errors := make(FieldErrors)

	if r.Email == "" {
		errors["email"] = "email is required"
	} else if !emailPattern.MatchString(r.Email) {
		errors["email"] = "please enter a valid email"
	}
	if r.Password == "" {
		errors["password"] = "password is required"
	} else if len(r.Password) < 6 {
		errors["password"] = "password must be at least 6 characters"
	}
	if r.DisplayName == "" {
		errors["displayName"] = "name is required"
	}

	return errors
}

func (r *LoginRequest) Validate() FieldErrors {
	errors := make(FieldErrors)

	if r.Email == "" {
		errors["email"] = "email is required"
	}
	if r.Password == "" {
		errors["password"] = "password is required"
	}

	return errors
}
