package cognito

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	apperrors "github.com/alpha-cen/auth-user-service/pkg/errors"

	"github.com/alpha-cen/auth-user-service/internal/domain"
)

// api is the subset of the Cognito SDK client the service uses. Tests
// substitute a mock.
type api interface {
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	AdminConfirmSignUp(ctx context.Context, in *cip.AdminConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.AdminConfirmSignUpOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
	ChangePassword(ctx context.Context, in *cip.ChangePasswordInput, optFns ...func(*cip.Options)) (*cip.ChangePasswordOutput, error)
	ForgotPassword(ctx context.Context, in *cip.ForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ForgotPasswordOutput, error)
	ConfirmForgotPassword(ctx context.Context, in *cip.ConfirmForgotPasswordInput, optFns ...func(*cip.Options)) (*cip.ConfirmForgotPasswordOutput, error)
	GetUser(ctx context.Context, in *cip.GetUserInput, optFns ...func(*cip.Options)) (*cip.GetUserOutput, error)
}

// ProviderUser is the profile the provider holds for a username.
type ProviderUser struct {
	Sub       string
	Username  string
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

// RegisterInput carries the attributes sent with a sign-up call.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "identity_provider_breaker_state",
		Help: "Circuit breaker state for identity provider calls (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Config holds Cognito client settings.
type Config struct {
	Region       string
	UserPoolID   string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client wraps the Cognito identity provider with a circuit breaker and
// bounded per-call timeouts.
type Client struct {
	api     api
	cfg     Config
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// NewClient builds a client from the default AWS config chain.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewClientWithAPI(cip.NewFromConfig(awsCfg), cfg, logger), nil
}

// NewClientWithAPI builds a client around an existing SDK client. Tests use
// this with a mock api.
func NewClientWithAPI(a api, cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	const name = "cognito"
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		// Client errors (bad credentials, duplicate usernames) must not
		// trip the breaker; only provider-side failures count.
		IsSuccessful: func(err error) bool {
			return err == nil || !isProviderFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
	breakerState.WithLabelValues(name).Set(0)

	return &Client{api: a, cfg: cfg, breaker: cb, logger: logger}
}

// execute runs fn through the circuit breaker with the configured timeout.
func execute[T any](ctx context.Context, c *Client, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	out, err := c.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, apperrors.Upstream("identity provider unavailable", err)
		}
		return zero, err
	}
	return out.(T), nil
}

// secretHash computes base64(HMAC-SHA256(username + clientID)) keyed with the
// client secret. Returns nil when no secret is configured.
func (c *Client) secretHash(username string) *string {
	if c.cfg.ClientSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(c.cfg.ClientSecret))
	mac.Write([]byte(username + c.cfg.ClientID))
	return aws.String(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

// InitiateAuth performs a USER_PASSWORD_AUTH flow and returns the issued tokens.
func (c *Client) InitiateAuth(ctx context.Context, username, password string) (*domain.TokenSet, error) {
	params := map[string]string{
		"USERNAME": username,
		"PASSWORD": password,
	}
	if h := c.secretHash(username); h != nil {
		params["SECRET_HASH"] = *h
	}

	out, err := execute(ctx, c, func(ctx context.Context) (*cip.InitiateAuthOutput, error) {
		return c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
			AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
			ClientId:       aws.String(c.cfg.ClientID),
			AuthParameters: params,
		})
	})
	if err != nil {
		return nil, mapAuthError(err)
	}
	return tokenSet(out.AuthenticationResult)
}

// RefreshAuth exchanges a refresh token for a fresh token set.
func (c *Client) RefreshAuth(ctx context.Context, refreshToken, username string) (*domain.TokenSet, error) {
	params := map[string]string{
		"REFRESH_TOKEN": refreshToken,
	}
	if h := c.secretHash(username); h != nil {
		params["SECRET_HASH"] = *h
	}

	out, err := execute(ctx, c, func(ctx context.Context) (*cip.InitiateAuthOutput, error) {
		return c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
			AuthFlow:       types.AuthFlowTypeRefreshTokenAuth,
			ClientId:       aws.String(c.cfg.ClientID),
			AuthParameters: params,
		})
	})
	if err != nil {
		return nil, mapAuthError(err)
	}
	return tokenSet(out.AuthenticationResult)
}

// SignUp registers a new user with the provider and returns the provider sub.
func (c *Client) SignUp(ctx context.Context, in RegisterInput) (string, error) {
	attrs := []types.AttributeType{
		{Name: aws.String("email"), Value: aws.String(in.Email)},
		{Name: aws.String("given_name"), Value: aws.String(in.FirstName)},
		{Name: aws.String("family_name"), Value: aws.String(in.LastName)},
	}
	if in.Phone != "" {
		attrs = append(attrs, types.AttributeType{
			Name: aws.String("phone_number"), Value: aws.String(in.Phone),
		})
	}

	out, err := execute(ctx, c, func(ctx context.Context) (*cip.SignUpOutput, error) {
		return c.api.SignUp(ctx, &cip.SignUpInput{
			ClientId:       aws.String(c.cfg.ClientID),
			Username:       aws.String(in.Username),
			Password:       aws.String(in.Password),
			SecretHash:     c.secretHash(in.Username),
			UserAttributes: attrs,
		})
	})
	if err != nil {
		return "", mapSignUpError(err)
	}
	return aws.ToString(out.UserSub), nil
}

// AdminConfirmSignUp confirms a freshly registered user without a code.
func (c *Client) AdminConfirmSignUp(ctx context.Context, username string) error {
	_, err := execute(ctx, c, func(ctx context.Context) (*cip.AdminConfirmSignUpOutput, error) {
		return c.api.AdminConfirmSignUp(ctx, &cip.AdminConfirmSignUpInput{
			UserPoolId: aws.String(c.cfg.UserPoolID),
			Username:   aws.String(username),
		})
	})
	if err != nil {
		return mapGenericError(err, "confirm sign up")
	}
	return nil
}

// GlobalSignOut revokes every token issued to the holder of the access token.
func (c *Client) GlobalSignOut(ctx context.Context, accessToken string) error {
	_, err := execute(ctx, c, func(ctx context.Context) (*cip.GlobalSignOutOutput, error) {
		return c.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{
			AccessToken: aws.String(accessToken),
		})
	})
	if err != nil {
		return mapGenericError(err, "sign out")
	}
	return nil
}

// ChangePassword changes the password for the holder of the access token.
func (c *Client) ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error {
	_, err := execute(ctx, c, func(ctx context.Context) (*cip.ChangePasswordOutput, error) {
		return c.api.ChangePassword(ctx, &cip.ChangePasswordInput{
			AccessToken:      aws.String(accessToken),
			PreviousPassword: aws.String(oldPassword),
			ProposedPassword: aws.String(newPassword),
		})
	})
	if err != nil {
		return mapPasswordError(err)
	}
	return nil
}

// ForgotPassword starts the reset flow; the provider emails a code.
func (c *Client) ForgotPassword(ctx context.Context, username string) error {
	_, err := execute(ctx, c, func(ctx context.Context) (*cip.ForgotPasswordOutput, error) {
		return c.api.ForgotPassword(ctx, &cip.ForgotPasswordInput{
			ClientId:   aws.String(c.cfg.ClientID),
			Username:   aws.String(username),
			SecretHash: c.secretHash(username),
		})
	})
	if err != nil {
		return mapGenericError(err, "forgot password")
	}
	return nil
}

// ConfirmForgotPassword completes the reset flow with the emailed code.
func (c *Client) ConfirmForgotPassword(ctx context.Context, username, code, newPassword string) error {
	_, err := execute(ctx, c, func(ctx context.Context) (*cip.ConfirmForgotPasswordOutput, error) {
		return c.api.ConfirmForgotPassword(ctx, &cip.ConfirmForgotPasswordInput{
			ClientId:         aws.String(c.cfg.ClientID),
			Username:         aws.String(username),
			ConfirmationCode: aws.String(code),
			Password:         aws.String(newPassword),
			SecretHash:       c.secretHash(username),
		})
	})
	if err != nil {
		return mapPasswordError(err)
	}
	return nil
}

// GetUser fetches the provider profile for the holder of the access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*ProviderUser, error) {
	out, err := execute(ctx, c, func(ctx context.Context) (*cip.GetUserOutput, error) {
		return c.api.GetUser(ctx, &cip.GetUserInput{
			AccessToken: aws.String(accessToken),
		})
	})
	if err != nil {
		return nil, mapGenericError(err, "get user")
	}

	u := &ProviderUser{Username: aws.ToString(out.Username)}
	for _, attr := range out.UserAttributes {
		switch aws.ToString(attr.Name) {
		case "sub":
			u.Sub = aws.ToString(attr.Value)
		case "email":
			u.Email = aws.ToString(attr.Value)
		case "given_name":
			u.FirstName = aws.ToString(attr.Value)
		case "family_name":
			u.LastName = aws.ToString(attr.Value)
		case "phone_number":
			u.Phone = aws.ToString(attr.Value)
		}
	}
	return u, nil
}

func tokenSet(result *types.AuthenticationResultType) (*domain.TokenSet, error) {
	if result == nil {
		return nil, apperrors.Upstream("identity provider returned no tokens", nil)
	}
	return &domain.TokenSet{
		AccessToken:  aws.ToString(result.AccessToken),
		IDToken:      aws.ToString(result.IdToken),
		RefreshToken: aws.ToString(result.RefreshToken),
		TokenType:    aws.ToString(result.TokenType),
		ExpiresIn:    result.ExpiresIn,
	}, nil
}
