package domain

import (
	"time"
)

// Address type constants define what an address may be used for.
const (
	AddressTypeShipping = "SHIPPING"
	AddressTypeBilling  = "BILLING"
	AddressTypeBoth     = "BOTH"
)

// ValidAddressTypes returns the set of valid address types.
func ValidAddressTypes() []string {
	return []string{AddressTypeShipping, AddressTypeBilling, AddressTypeBoth}
}

// IsValidAddressType checks whether the given type is valid.
func IsValidAddressType(t string) bool {
	for _, v := range ValidAddressTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// Address represents a shipping or billing address owned by a user.
// At most one address per user has IsDefault set.
type Address struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 string    `json:"address_line2,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	PostalCode   string    `json:"postal_code,omitempty"`
	Country      string    `json:"country"`
	IsDefault    bool      `json:"is_default"`
	AddressType  string    `json:"address_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
