package domain

import "context"

// User represents the record-store user behind a bearer token
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// UserDirectory resolves the user owning an access token
type UserDirectory interface {
	Me(ctx context.Context, token string) (*User, error)
}
