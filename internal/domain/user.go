package domain

import (
	"time"
)

// User represents the local profile mirrored from the identity provider.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserWithAddressCount annotates a user with the number of owned addresses,
// used by the admin listing.
type UserWithAddressCount struct {
	User
	AddressCount int `json:"address_count"`
}

// UserWithAddresses bundles a profile with its full address book.
type UserWithAddresses struct {
	User
	Addresses []*Address `json:"addresses"`
}

// UserStatistics is the aggregate view computed per admin request.
type UserStatistics struct {
	TotalUsers     int `json:"total_users"`
	AdminCount     int `json:"admin_count"`
	UserCount      int `json:"user_count"`
	TotalAddresses int `json:"total_addresses"`
}

// TokenSet holds the tokens issued by the identity provider.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int32  `json:"expires_in"`
}
