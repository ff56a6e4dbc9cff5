package operator

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/licenseguard/licenseguard-backend/pkg/config"
	"github.com/licenseguard/licenseguard-backend/pkg/errors"
)

// Claims represents the operator token claims
type Claims struct {
	jwt.RegisteredClaims
	OperatorID string `json:"operator_id"`
	Username   string `json:"username"`
}

// TokenManager issues and validates operator access tokens
type TokenManager struct {
	config *config.JWTConfig
}

// NewTokenManager creates a new token manager
func NewTokenManager(cfg *config.JWTConfig) *TokenManager {
	return &TokenManager{config: cfg}
}

// Token is an issued access token
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
}

// Issue generates an access token for a logged-in operator
func (m *TokenManager) Issue(username string) (*Token, error) {
	now := time.Now()
	expiry := now.Add(m.config.AccessExpiry)
	operatorID := uuid.New().String()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		OperatorID: operatorID,
		Username:   username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return nil, err
	}

	return &Token{
		AccessToken: signed,
		ExpiresAt:   expiry,
		TokenType:   "Bearer",
	}, nil
}

// Validate validates an access token and returns its claims
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.TokenInvalid()
		}
		return []byte(m.config.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.TokenExpired()
		}
		return nil, errors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.TokenInvalid()
	}

	return claims, nil
}
