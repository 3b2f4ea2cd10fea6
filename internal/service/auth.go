package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/alpha-cen/auth-user-service/pkg/errors"

	"github.com/alpha-cen/auth-user-service/internal/cognito"
	"github.com/alpha-cen/auth-user-service/internal/domain"
	"github.com/alpha-cen/auth-user-service/internal/event"
	"github.com/alpha-cen/auth-user-service/internal/observability"
	"github.com/alpha-cen/auth-user-service/internal/repository"
)

// bcryptCost is the cost factor for hashing the locally mirrored password.
const bcryptCost = 12

// minPasswordLength is the minimum accepted password length. The provider
// enforces its own policy on top.
const minPasswordLength = 8

// AuthService delegates credential handling to the identity provider and
// keeps the local profile mirror in sync.
type AuthService struct {
	provider IdentityProvider
	userRepo repository.UserRepository
	producer event.Publisher
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	provider IdentityProvider,
	userRepo repository.UserRepository,
	producer event.Publisher,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		provider: provider,
		userRepo: userRepo,
		producer: producer,
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// LoginResult bundles the issued tokens with the local profile.
type LoginResult struct {
	Tokens *domain.TokenSet `json:"tokens"`
	User   *domain.User     `json:"user"`
}

// Login authenticates against the identity provider. When the local mirror
// row is missing it is reconciled from the provider's profile attributes.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, apperrors.InvalidInput("username and password are required")
	}

	start := time.Now()
	tokens, err := s.provider.InitiateAuth(ctx, username, password)
	duration := time.Since(start)
	if err != nil {
		s.metrics.LoginFailed(duration)
		s.logger.WarnContext(ctx, "login failed",
			slog.String("username", username),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get user: %w", err)
		}
		user, err = s.reconcileLocalUser(ctx, tokens.AccessToken)
		if err != nil {
			return nil, err
		}
	}

	s.metrics.LoginSucceeded(duration)
	s.logger.InfoContext(ctx, "login succeeded",
		slog.String("username", username),
		slog.Duration("duration", duration),
	)

	return &LoginResult{Tokens: tokens, User: user}, nil
}

// reconcileLocalUser creates the mirror row from the provider's profile for
// users that authenticated before the local store existed.
func (s *AuthService) reconcileLocalUser(ctx context.Context, accessToken string) (*domain.User, error) {
	pu, err := s.provider.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	// The local hash is a placeholder; real credential checks happen at the
	// provider.
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}

	id := pu.Sub
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           id,
		Username:     pu.Username,
		Email:        pu.Email,
		PasswordHash: string(hash),
		FirstName:    pu.FirstName,
		LastName:     pu.LastName,
		Phone:        pu.Phone,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("reconcile local user: %w", err)
	}

	s.logger.InfoContext(ctx, "reconciled local profile from provider",
		slog.String("username", user.Username),
	)
	return user, nil
}

// Register signs a user up with the provider and creates the local mirror
// row. The local username check runs before any provider side effect.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if exists {
		s.metrics.RegistrationFailed()
		return nil, apperrors.AlreadyExists("user", "username", input.Username)
	}

	sub, err := s.provider.SignUp(ctx, cognito.RegisterInput{
		Username:  input.Username,
		Password:  input.Password,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
	})
	if err != nil {
		s.metrics.RegistrationFailed()
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id := sub
	if id == "" {
		id = uuid.New().String()
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           id,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Auto-confirmation is best effort; the account works once the user
	// confirms through the provider if this fails.
	if err := s.provider.AdminConfirmSignUp(ctx, input.Username); err != nil {
		s.logger.WarnContext(ctx, "auto-confirm failed",
			slog.String("username", input.Username),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.metrics.RegistrationSucceeded()
	s.logger.InfoContext(ctx, "user registered", slog.String("username", user.Username))

	return user, nil
}

// Refresh exchanges a refresh token for a fresh token set. Username is only
// needed when the provider client is configured with a secret.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, username string) (*domain.TokenSet, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	tokens, err := s.provider.RefreshAuth(ctx, refreshToken, username)
	if err != nil {
		return nil, err
	}

	s.metrics.TokenRefreshed()
	return tokens, nil
}

// SignOut revokes every token issued to the access token's holder. Provider
// failures are logged and swallowed; the caller always sees success.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) {
	if err := s.provider.GlobalSignOut(ctx, accessToken); err != nil {
		s.logger.WarnContext(ctx, "sign out failed", slog.String("error", err.Error()))
	}
}

// ChangePassword changes the password for the access token's holder.
func (s *AuthService) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if err := s.provider.ChangePassword(ctx, accessToken, oldPassword, newPassword); err != nil {
		return err
	}

	s.metrics.PasswordChanged()
	return nil
}

// ForgotPassword starts the reset flow for the given username.
func (s *AuthService) ForgotPassword(ctx context.Context, username string) error {
	if username == "" {
		return apperrors.InvalidInput("username is required")
	}

	if err := s.provider.ForgotPassword(ctx, username); err != nil {
		return err
	}

	s.metrics.PasswordResetRequested()
	return nil
}

// ConfirmForgotPassword completes the reset flow with the emailed code.
func (s *AuthService) ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) error {
	if username == "" || code == "" {
		return apperrors.InvalidInput("username and confirmation code are required")
	}
	if len(newPassword) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if err := s.provider.ConfirmForgotPassword(ctx, username, code, newPassword); err != nil {
		return err
	}

	s.metrics.PasswordResetConfirmed()
	return nil
}
