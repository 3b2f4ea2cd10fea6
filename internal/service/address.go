package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/alpha-cen/auth-user-service/pkg/errors"

	"github.com/alpha-cen/auth-user-service/internal/domain"
	"github.com/alpha-cen/auth-user-service/internal/observability"
	"github.com/alpha-cen/auth-user-service/internal/repository"
)

// AddressService manages a user's address book, keeping the
// one-default-per-user invariant.
type AddressService struct {
	userRepo    repository.UserRepository
	addressRepo repository.AddressRepository
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewAddressService creates a new address service.
func NewAddressService(
	userRepo repository.UserRepository,
	addressRepo repository.AddressRepository,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *AddressService {
	return &AddressService{
		userRepo:    userRepo,
		addressRepo: addressRepo,
		metrics:     metrics,
		logger:      logger,
	}
}

// CreateAddressInput holds the parameters for creating an address.
type CreateAddressInput struct {
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	IsDefault    bool
	AddressType  string
}

// UpdateAddressInput holds the partial update. Nil fields are left untouched.
type UpdateAddressInput struct {
	AddressLine1 *string
	AddressLine2 *string
	City         *string
	State        *string
	PostalCode   *string
	Country      *string
	IsDefault    *bool
	AddressType  *string
}

func (s *AddressService) resolveUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// List returns the user's addresses, default first, then newest first.
func (s *AddressService) List(ctx context.Context, username string) ([]*domain.Address, error) {
	user, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.addressRepo.ListByUserID(ctx, user.ID)
}

// Get returns one address. An address owned by someone else is
// indistinguishable from a missing one.
func (s *AddressService) Get(ctx context.Context, addressID, username string) (*domain.Address, error) {
	user, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.addressRepo.GetByIDAndUserID(ctx, addressID, user.ID)
}

// GetDefault returns the user's default address, NotFound when none exists.
func (s *AddressService) GetDefault(ctx context.Context, username string) (*domain.Address, error) {
	user, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.addressRepo.GetDefault(ctx, user.ID)
}

// Create adds an address. When the request asks for default, existing
// defaults are cleared in the same transaction as the insert.
func (s *AddressService) Create(ctx context.Context, username string, input CreateAddressInput) (*domain.Address, error) {
	if input.AddressLine1 == "" {
		return nil, apperrors.InvalidInput("address line 1 is required")
	}
	if input.Country == "" {
		return nil, apperrors.InvalidInput("country is required")
	}

	addressType := input.AddressType
	if addressType == "" {
		addressType = domain.AddressTypeBoth
	}
	if !domain.IsValidAddressType(addressType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid address type %q", input.AddressType))
	}

	user, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	address := &domain.Address{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		State:        input.State,
		PostalCode:   input.PostalCode,
		Country:      input.Country,
		IsDefault:    input.IsDefault,
		AddressType:  addressType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.addressRepo.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	s.metrics.AddressCreated()
	s.logger.InfoContext(ctx, "address created",
		slog.String("username", username),
		slog.String("address_id", address.ID),
		slog.Bool("is_default", address.IsDefault),
	)

	return address, nil
}

// Update applies the non-nil fields of input. Setting is_default clears
// other defaults in the same transaction as the update.
func (s *AddressService) Update(ctx context.Context, addressID, username string, input UpdateAddressInput) (*domain.Address, error) {
	user, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}

	address, err := s.addressRepo.GetByIDAndUserID(ctx, addressID, user.ID)
	if err != nil {
		return nil, err
	}

	if input.AddressLine1 != nil {
		if *input.AddressLine1 == "" {
			return nil, apperrors.InvalidInput("address line 1 cannot be blank")
		}
		address.AddressLine1 = *input.AddressLine1
	}
	if input.AddressLine2 != nil {
		address.AddressLine2 = *input.AddressLine2
	}
	if input.City != nil {
		address.City = *input.City
	}
	if input.State != nil {
		address.State = *input.State
	}
	if input.PostalCode != nil {
		address.PostalCode = *input.PostalCode
	}
	if input.Country != nil {
		if *input.Country == "" {
			return nil, apperrors.InvalidInput("country cannot be blank")
		}
		address.Country = *input.Country
	}
	if input.AddressType != nil {
		if !domain.IsValidAddressType(*input.AddressType) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid address type %q", *input.AddressType))
		}
		address.AddressType = *input.AddressType
	}

	resetOthers := false
	if input.IsDefault != nil {
		if *input.IsDefault && !address.IsDefault {
			resetOthers = true
		}
		address.IsDefault = *input.IsDefault
	}

	if err := s.addressRepo.Update(ctx, address, resetOthers); err != nil {
		return nil, err
	}

	s.metrics.AddressUpdated()
	s.logger.InfoContext(ctx, "address updated",
		slog.String("username", username),
		slog.String("address_id", address.ID),
	)

	return address, nil
}

// Delete removes an address owned by the user. Deleting the current default
// does not promote another address.
func (s *AddressService) Delete(ctx context.Context, addressID, username string) error {
	user, err := s.resolveUser(ctx, username)
	if err != nil {
		return err
	}

	if err := s.addressRepo.Delete(ctx, addressID, user.ID); err != nil {
		return err
	}

	s.metrics.AddressDeleted()
	s.logger.InfoContext(ctx, "address deleted",
		slog.String("username", username),
		slog.String("address_id", addressID),
	)
	return nil
}

// SetDefault marks the address as the user's default with a clear-then-set
// inside one transaction.
func (s *AddressService) SetDefault(ctx context.Context, addressID, username string) (*domain.Address, error) {
	user, err := s.resolveUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := s.addressRepo.SetDefault(ctx, user.ID, addressID); err != nil {
		return nil, err
	}

	address, err := s.addressRepo.GetByIDAndUserID(ctx, addressID, user.ID)
	if err != nil {
		return nil, err
	}

	s.metrics.DefaultAddressChanged()
	s.logger.InfoContext(ctx, "default address changed",
		slog.String("username", username),
		slog.String("address_id", addressID),
	)

	return address, nil
}
