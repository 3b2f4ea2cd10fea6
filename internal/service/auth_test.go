package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/alpha-cen/auth-user-service/pkg/errors"

	"github.com/alpha-cen/auth-user-service/internal/cognito"
	"github.com/alpha-cen/auth-user-service/internal/domain"
)

func testUser() *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:           "3f1e9c2a-7b44-4b8e-9d15-2a6f8c0e1d23",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$04$placeholderplaceholderxx",
		FirstName:    "Alice",
		LastName:     "Smith",
		Phone:        "+12025550123",
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func testTokens() *domain.TokenSet {
	return &domain.TokenSet{
		AccessToken:  "access-token",
		IDToken:      "id-token",
		RefreshToken: "refresh-token",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	}
}

func newAuthFixture(t *testing.T) (*AuthService, *mockIdentityProvider, *mockUserRepository, *mockPublisher) {
	t.Helper()
	provider := new(mockIdentityProvider)
	userRepo := new(mockUserRepository)
	producer := new(mockPublisher)
	svc := NewAuthService(provider, userRepo, producer, newTestMetrics(), newTestLogger(t))
	return svc, provider, userRepo, producer
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_Login_Success(t *testing.T) {
	svc, provider, userRepo, _ := newAuthFixture(t)

	u := testUser()
	tokens := testTokens()

	provider.On("InitiateAuth", mock.Anything, "alice", "password123").Return(tokens, nil)
	userRepo.On("GetByUsername", mock.Anything, "alice").Return(u, nil)

	result, err := svc.Login(context.Background(), "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, tokens, result.Tokens)
	assert.Equal(t, u, result.User)
	provider.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestAuthService_Login_InvalidCredentials_NoLocalMutation(t *testing.T) {
	svc, provider, userRepo, _ := newAuthFixture(t)

	provider.On("InitiateAuth", mock.Anything, "alice", "wrong").
		Return(nil, apperrors.Unauthorized("invalid credentials"))

	result, err := svc.Login(context.Background(), "alice", "wrong")
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	// A failed login never touches the local store.
	userRepo.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	provider.AssertExpectations(t)
}

func TestAuthService_Login_ReconcilesMissingLocalUser(t *testing.T) {
	svc, provider, userRepo, _ := newAuthFixture(t)

	tokens := testTokens()
	provider.On("InitiateAuth", mock.Anything, "alice", "password123").Return(tokens, nil)
	userRepo.On("GetByUsername", mock.Anything, "alice").Return(nil, apperrors.ErrNotFound)
	provider.On("GetUser", mock.Anything, tokens.AccessToken).Return(&cognito.ProviderUser{
		Sub:       "provider-sub-1",
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
	}, nil)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.ID == "provider-sub-1" &&
			u.Username == "alice" &&
			u.Email == "alice@example.com" &&
			u.Role == domain.RoleUser &&
			u.PasswordHash != ""
	})).Return(nil)

	result, err := svc.Login(context.Background(), "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "provider-sub-1", result.User.ID)
	provider.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestAuthService_Login_MissingInput(t *testing.T) {
	svc, provider, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "", "password123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = svc.Login(context.Background(), "alice", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	provider.AssertNotCalled(t, "InitiateAuth", mock.Anything, mock.Anything, mock.Anything)
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_Success(t *testing.T) {
	svc, provider, userRepo, producer := newAuthFixture(t)

	input := RegisterInput{
		Username:  "bob",
		Password:  "password123",
		Email:     "bob@example.com",
		FirstName: "Bob",
		LastName:  "Jones",
		Phone:     "+12025550188",
	}

	userRepo.On("ExistsByUsername", mock.Anything, "bob").Return(false, nil)
	provider.On("SignUp", mock.Anything, cognito.RegisterInput{
		Username:  "bob",
		Password:  "password123",
		Email:     "bob@example.com",
		FirstName: "Bob",
		LastName:  "Jones",
		Phone:     "+12025550188",
	}).Return("provider-sub-bob", nil)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.ID == "provider-sub-bob" && u.Username == "bob" && u.Role == domain.RoleUser
	})).Return(nil)
	provider.On("AdminConfirmSignUp", mock.Anything, "bob").Return(nil)
	producer.On("PublishUserRegistered", mock.Anything, mock.Anything).Return(nil)

	user, err := svc.Register(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "provider-sub-bob", user.ID)
	assert.Equal(t, "bob", user.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
	provider.AssertExpectations(t)
	userRepo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestAuthService_Register_LocalUsernameTaken_SkipsProvider(t *testing.T) {
	svc, provider, userRepo, _ := newAuthFixture(t)

	userRepo.On("ExistsByUsername", mock.Anything, "alice").Return(true, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Password: "password123",
		Email:    "alice@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))

	// The conflict is caught before any provider side effect.
	provider.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
	userRepo.AssertExpectations(t)
}

func TestAuthService_Register_ProviderConflict(t *testing.T) {
	svc, provider, userRepo, _ := newAuthFixture(t)

	userRepo.On("ExistsByUsername", mock.Anything, "bob").Return(false, nil)
	provider.On("SignUp", mock.Anything, mock.Anything).
		Return("", apperrors.AlreadyExists("user", "username", "bob"))

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "bob",
		Password: "password123",
		Email:    "bob@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_ShortPassword(t *testing.T) {
	svc, provider, _, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "bob",
		Password: "short",
		Email:    "bob@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	provider.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything)
}

func TestAuthService_Register_ConfirmFailureIsNotFatal(t *testing.T) {
	svc, provider, userRepo, producer := newAuthFixture(t)

	userRepo.On("ExistsByUsername", mock.Anything, "bob").Return(false, nil)
	provider.On("SignUp", mock.Anything, mock.Anything).Return("sub-1", nil)
	userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	provider.On("AdminConfirmSignUp", mock.Anything, "bob").
		Return(apperrors.Upstream("identity provider unavailable", errors.New("timeout")))
	producer.On("PublishUserRegistered", mock.Anything, mock.Anything).Return(nil)

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "bob",
		Password: "password123",
		Email:    "bob@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", user.ID)
}

// ---------------------------------------------------------------------------
// Refresh / SignOut
// ---------------------------------------------------------------------------

func TestAuthService_Refresh_Success(t *testing.T) {
	svc, provider, _, _ := newAuthFixture(t)

	tokens := testTokens()
	provider.On("RefreshAuth", mock.Anything, "refresh-token", "alice").Return(tokens, nil)

	got, err := svc.Refresh(context.Background(), "refresh-token", "alice")
	require.NoError(t, err)
	assert.Equal(t, tokens, got)
	provider.AssertExpectations(t)
}

func TestAuthService_Refresh_MissingToken(t *testing.T) {
	svc, provider, _, _ := newAuthFixture(t)

	_, err := svc.Refresh(context.Background(), "", "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	provider.AssertNotCalled(t, "RefreshAuth", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_SignOut_SwallowsProviderError(t *testing.T) {
	svc, provider, _, _ := newAuthFixture(t)

	provider.On("GlobalSignOut", mock.Anything, "access-token").
		Return(apperrors.Unauthorized("token revoked"))

	// SignOut has no error return; the provider failure is only logged.
	svc.SignOut(context.Background(), "access-token")
	provider.AssertExpectations(t)
}

// ---------------------------------------------------------------------------
// Password flows
// ---------------------------------------------------------------------------

func TestAuthService_ChangePassword_Success(t *testing.T) {
	svc, provider, _, _ := newAuthFixture(t)

	provider.On("ChangePassword", mock.Anything, "access-token", "oldpassword", "newpassword").Return(nil)

	err := svc.ChangePassword(context.Background(), "access-token", "oldpassword", "newpassword")
	assert.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestAuthService_ChangePassword_ShortNewPassword(t *testing.T) {
	svc, provider, _, _ := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), "access-token", "oldpassword", "short")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	provider.AssertNotCalled(t, "ChangePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ForgotPassword_Success(t *testing.T) {
	svc, provider, _, _ := newAuthFixture(t)

	provider.On("ForgotPassword", mock.Anything, "alice").Return(nil)

	err := svc.ForgotPassword(context.Background(), "alice")
	assert.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestAuthService_ConfirmForgotPassword_MissingCode(t *testing.T) {
	svc, provider, _, _ := newAuthFixture(t)

	err := svc.ConfirmForgotPassword(context.Background(), "alice", "", "newpassword")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	provider.AssertNotCalled(t, "ConfirmForgotPassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ConfirmForgotPassword_Success(t *testing.T) {
	svc, provider, _, _ := newAuthFixture(t)

	provider.On("ConfirmForgotPassword", mock.Anything, "alice", "123456", "newpassword").Return(nil)

	err := svc.ConfirmForgotPassword(context.Background(), "alice", "123456", "newpassword")
	assert.NoError(t, err)
	provider.AssertExpectations(t)
}
