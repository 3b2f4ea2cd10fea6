package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/alpha-cen/auth-user-service/pkg/errors"

	"github.com/alpha-cen/auth-user-service/internal/domain"
	"github.com/alpha-cen/auth-user-service/internal/event"
	"github.com/alpha-cen/auth-user-service/internal/observability"
	"github.com/alpha-cen/auth-user-service/internal/repository"
)

// UserService implements profile management for users and admins.
type UserService struct {
	userRepo    repository.UserRepository
	addressRepo repository.AddressRepository
	producer    event.Publisher
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	addressRepo repository.AddressRepository,
	producer event.Publisher,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		addressRepo: addressRepo,
		producer:    producer,
		metrics:     metrics,
		logger:      logger,
	}
}

// UpdateProfileInput holds the self-service partial update. Nil fields are
// left untouched.
type UpdateProfileInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
}

// AdminUpdateInput holds the admin partial update. Nil fields are left
// untouched; blank strings clear optional text fields.
type AdminUpdateInput struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
	Role      *string
	Password  *string
}

// GetProfile returns the profile for the given username.
func (s *UserService) GetProfile(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetProfileWithAddresses returns the profile with its full address book.
func (s *UserService) GetProfileWithAddresses(ctx context.Context, username string) (*domain.UserWithAddresses, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	addresses, err := s.addressRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}

	return &domain.UserWithAddresses{User: *user, Addresses: addresses}, nil
}

// UpdateProfile applies the non-nil fields of input to the user's profile.
// Nothing is persisted when no field actually changes.
func (s *UserService) UpdateProfile(ctx context.Context, username string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	changed := false

	if input.Email != nil && *input.Email != user.Email {
		taken, err := s.userRepo.ExistsByEmail(ctx, *input.Email, user.ID)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			return nil, apperrors.AlreadyExists("user", "email", *input.Email)
		}
		user.Email = *input.Email
		changed = true
	}
	if input.FirstName != nil && *input.FirstName != user.FirstName {
		user.FirstName = *input.FirstName
		changed = true
	}
	if input.LastName != nil && *input.LastName != user.LastName {
		user.LastName = *input.LastName
		changed = true
	}
	if input.Phone != nil && *input.Phone != user.Phone {
		user.Phone = *input.Phone
		changed = true
	}

	if !changed {
		return user, nil
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := s.producer.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.ProfileUpdated()
	s.logger.InfoContext(ctx, "profile updated", slog.String("username", username))

	return user, nil
}

// DeleteAccount removes the user's own account. Address rows cascade.
func (s *UserService) DeleteAccount(ctx context.Context, username string) error {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.deleteUser(ctx, user)
}

// AdminList returns all users, optionally filtered by a case-insensitive
// substring match on username or email.
func (s *UserService) AdminList(ctx context.Context, search string) ([]*domain.UserWithAddressCount, error) {
	return s.userRepo.List(ctx, search)
}

// AdminGet returns a user by ID.
func (s *UserService) AdminGet(ctx context.Context, id string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// AdminGetWithAddresses returns a user by ID with their address book.
func (s *UserService) AdminGetWithAddresses(ctx context.Context, id string) (*domain.UserWithAddresses, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	addresses, err := s.addressRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}

	return &domain.UserWithAddresses{User: *user, Addresses: addresses}, nil
}

// AdminUpdate applies the non-nil fields of input to any user's row. Unlike
// the self-service update it may change username and role, and blank strings
// clear the optional text fields.
func (s *UserService) AdminUpdate(ctx context.Context, id string, input AdminUpdateInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil && *input.Username != user.Username {
		if *input.Username == "" {
			return nil, apperrors.InvalidInput("username cannot be blank")
		}
		taken, err := s.userRepo.ExistsByUsernameExcluding(ctx, *input.Username, user.ID)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return nil, apperrors.AlreadyExists("user", "username", *input.Username)
		}
		user.Username = *input.Username
	}

	if input.Email != nil && *input.Email != user.Email {
		if *input.Email == "" {
			return nil, apperrors.InvalidInput("email cannot be blank")
		}
		taken, err := s.userRepo.ExistsByEmail(ctx, *input.Email, user.ID)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			return nil, apperrors.AlreadyExists("user", "email", *input.Email)
		}
		user.Email = *input.Email
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}

	if input.Role != nil {
		role := domain.NormalizeRole(*input.Role)
		if !domain.IsValidRole(role) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid role %q", *input.Role))
		}
		user.Role = role
	}

	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		// Only the local mirror changes; the provider password is managed
		// through the auth flows.
		user.PasswordHash = string(hash)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := s.producer.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user updated by admin", slog.String("user_id", user.ID))
	return user, nil
}

// AdminDelete removes any user's account by ID.
func (s *UserService) AdminDelete(ctx context.Context, id string) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.deleteUser(ctx, user)
}

func (s *UserService) deleteUser(ctx context.Context, user *domain.User) error {
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return err
	}

	if err := s.producer.PublishUserDeleted(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.deleted event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.UserDeleted()
	s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", user.ID))
	return nil
}

// Statistics computes the aggregate user and address counts per call.
func (s *UserService) Statistics(ctx context.Context) (*domain.UserStatistics, error) {
	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	admins, err := s.userRepo.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("count admins: %w", err)
	}
	regular, err := s.userRepo.CountByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	addresses, err := s.addressRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count addresses: %w", err)
	}

	return &domain.UserStatistics{
		TotalUsers:     total,
		AdminCount:     admins,
		UserCount:      regular,
		TotalAddresses: addresses,
	}, nil
}
