package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"financebot-be/internal/entity"
	"financebot-be/internal/repository/memory"
	"financebot-be/internal/repository/specification"
	"financebot-be/internal/repository/unitofwork"
	"financebot-be/pkg/identity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// localIdentityProvider keeps users in the application database and issues
// HS256 session tokens. Used when no hosted identity provider is configured.
type localIdentityProvider struct {
	uowFactory unitofwork.RepositoryFactory
	revoked    *memory.TokenRepository
	secret     []byte
	tokenTTL   time.Duration
}

func NewLocalIdentityProvider(uowFactory unitofwork.RepositoryFactory, revoked *memory.TokenRepository, secret string, tokenTTL time.Duration) identity.Provider {
	return &localIdentityProvider{
		uowFactory: uowFactory,
		revoked:    revoked,
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
	}
}

type localUser struct {
	Id           uuid.UUID         `json:"id"`
	Email        string            `json:"email"`
	UserMetadata map[string]string `json:"user_metadata"`
	CreatedAt    time.Time         `json:"created_at"`
}

type localSession struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   int64     `json:"expires_at"`
	User        localUser `json:"user"`
}

var errInvalidCredentials = &identity.ProviderError{StatusCode: http.StatusBadRequest, Message: "Invalid login credentials"}

func (p *localIdentityProvider) SignUp(ctx context.Context, creds identity.Credentials) (*identity.AuthResult, error) {
	uow := p.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: creds.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &identity.ProviderError{StatusCode: http.StatusUnprocessableEntity, Message: "User already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, &identity.ProviderError{StatusCode: http.StatusBadRequest, Message: "Password is too long"}
		}
		return nil, err
	}

	user := &entity.User{
		Id:           uuid.New(),
		Email:        creds.Email,
		Name:         creds.Name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return p.issue(user)
}

func (p *localIdentityProvider) SignIn(ctx context.Context, email, password string) (*identity.AuthResult, error) {
	uow := p.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return p.issue(user)
}

// SignOut revokes the token id until the token would have expired.
// Tokens that no longer verify are already unusable and are ignored.
func (p *localIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	claims, err := p.parse(accessToken)
	if err != nil {
		return nil
	}
	jti, _ := claims["jti"].(string)
	exp, err := claims.GetExpirationTime()
	if jti == "" || err != nil || exp == nil {
		return nil
	}
	p.revoked.Revoke(jti, exp.Time)
	return nil
}

func (p *localIdentityProvider) GetUser(ctx context.Context, accessToken string) (string, error) {
	claims, err := p.parse(accessToken)
	if err != nil {
		return "", &identity.ProviderError{StatusCode: http.StatusUnauthorized, Message: "invalid token"}
	}
	if jti, _ := claims["jti"].(string); jti != "" && p.revoked.IsRevoked(jti) {
		return "", &identity.ProviderError{StatusCode: http.StatusUnauthorized, Message: "token has been revoked"}
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", &identity.ProviderError{StatusCode: http.StatusUnauthorized, Message: "token missing user_id"}
	}
	return userID, nil
}

func (p *localIdentityProvider) parse(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}
	return claims, nil
}

func (p *localIdentityProvider) issue(user *entity.User) (*identity.AuthResult, error) {
	now := time.Now()
	expiresAt := now.Add(p.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.Id.String(),
		"email":   user.Email,
		"jti":     uuid.NewString(),
		"iat":     now.Unix(),
		"exp":     expiresAt.Unix(),
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	u := localUser{
		Id:           user.Id,
		Email:        user.Email,
		UserMetadata: map[string]string{"name": user.Name},
		CreatedAt:    user.CreatedAt,
	}
	userJSON, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	sessionJSON, err := json.Marshal(localSession{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(p.tokenTTL.Seconds()),
		ExpiresAt:   expiresAt.Unix(),
		User:        u,
	})
	if err != nil {
		return nil, err
	}

	return &identity.AuthResult{
		User:    userJSON,
		Session: sessionJSON,
		UserID:  user.Id.String(),
		Email:   user.Email,
	}, nil
}
