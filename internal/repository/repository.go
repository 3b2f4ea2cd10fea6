package repository

import (
	"context"

	"github.com/alpha-cen/auth-user-service/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by their username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// ExistsByUsername reports whether a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail reports whether a different user (excluding excludeID)
	// already holds the given email. Pass an empty excludeID to check all users.
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)

	// ExistsByUsernameExcluding reports whether a different user already
	// holds the given username.
	ExistsByUsernameExcluding(ctx context.Context, username, excludeID string) (bool, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store by their identifier.
	Delete(ctx context.Context, id string) error

	// List returns all users, optionally filtered by a case-insensitive
	// substring match on username or email, each with its address count.
	List(ctx context.Context, search string) ([]*domain.UserWithAddressCount, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int, error)

	// CountByRole returns the number of users holding the given role.
	CountByRole(ctx context.Context, role string) (int, error)
}

// AddressRepository defines the interface for address persistence operations.
type AddressRepository interface {
	// Create inserts a new address. When the address is marked default, any
	// existing default for the user is cleared in the same transaction.
	Create(ctx context.Context, address *domain.Address) error

	// GetByIDAndUserID retrieves an address only when it belongs to the user.
	GetByIDAndUserID(ctx context.Context, id, userID string) (*domain.Address, error)

	// GetDefault retrieves the user's default address.
	GetDefault(ctx context.Context, userID string) (*domain.Address, error)

	// ListByUserID returns all addresses for the user, default first,
	// then newest first.
	ListByUserID(ctx context.Context, userID string) ([]*domain.Address, error)

	// Update modifies an existing address. When resetOthers is set, other
	// defaults for the user are cleared in the same transaction.
	Update(ctx context.Context, address *domain.Address, resetOthers bool) error

	// Delete removes an address owned by the user.
	Delete(ctx context.Context, id, userID string) error

	// SetDefault marks the address as the user's default, clearing any
	// previous default within one transaction.
	SetDefault(ctx context.Context, userID, addressID string) error

	// CountByUserID returns the number of addresses owned by the user.
	CountByUserID(ctx context.Context, userID string) (int, error)

	// Count returns the total number of addresses across all users.
	Count(ctx context.Context) (int, error)
}
