package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

const issuer = "cagedesk"

// Claims represents the session token claims
type Claims struct {
	SessionID string `json:"sid"`
	Phone     string `json:"phone"`
	Name      string `json:"name"`
	Master    bool   `json:"master,omitempty"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs a token for an open session
func GenerateSessionToken(sessionID, phone, name string, master bool, secret string, expiryDays int) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sessionID,
		Phone:     phone,
		Name:      name,
		Master:    master,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiryDays) * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   phone,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateSessionToken checks signature and expiry. It does not know
// whether the session was revoked; callers check the session store.
func ValidateSessionToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.SessionID != "" {
		return claims, nil
	}

	return nil, ErrTokenInvalid
}
