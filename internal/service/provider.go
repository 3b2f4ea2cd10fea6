package service

import (
	"context"

	"github.com/alpha-cen/auth-user-service/internal/cognito"
	"github.com/alpha-cen/auth-user-service/internal/domain"
)

// IdentityProvider is the surface of the Cognito client the services depend
// on. Tests substitute a mock.
type IdentityProvider interface {
	InitiateAuth(ctx context.Context, username, password string) (*domain.TokenSet, error)
	RefreshAuth(ctx context.Context, refreshToken, username string) (*domain.TokenSet, error)
	SignUp(ctx context.Context, in cognito.RegisterInput) (string, error)
	AdminConfirmSignUp(ctx context.Context, username string) error
	GlobalSignOut(ctx context.Context, accessToken string) error
	ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error
	ForgotPassword(ctx context.Context, username string) error
	ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) error
	GetUser(ctx context.Context, accessToken string) (*cognito.ProviderUser, error)
}
