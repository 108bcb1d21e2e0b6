package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Operator roles carried in access tokens
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// OperatorClaims represents the claims in an operator access token
type OperatorClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Operator returns the token subject
func (c *OperatorClaims) Operator() string {
	return c.Subject
}

// HasRole reports whether the claims grant any of roles
func (c *OperatorClaims) HasRole(roles ...string) bool {
	for _, have := range c.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

// JWTManager handles operator token generation and validation
type JWTManager struct {
	secretKey []byte
	issuer    string
	expiry    time.Duration
	now       func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret, issuer string, expiry time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secret),
		issuer:    issuer,
		expiry:    expiry,
		now:       time.Now,
	}
}

// Issue signs an access token for operator with the given roles
func (m *JWTManager) Issue(operator string, roles []string) (string, time.Time, error) {
	if operator == "" {
		return "", time.Time{}, errors.New("operator is required")
	}
	now := m.now()
	expires := now.Add(m.expiry)
	claims := &OperatorClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   operator,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Validate validates an access token and returns its claims
func (m *JWTManager) Validate(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no operator")
	}

	return claims, nil
}
