package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// AccessTokenValidity is how long an access token stays valid.
	AccessTokenValidity = time.Hour * 24
	// RefreshTokenValidity is how long a refresh token stays valid.
	RefreshTokenValidity = time.Hour * 24 * 7
)

// GenerateTokenPair returns signed access and refresh tokens for the user.
// The access token carries the id and role claims the Authorize middleware
// turns into an AuthSession.
func GenerateTokenPair(email, secret string, userID uint, role string) (string, string, error) {
	accessClaims := jwt.MapClaims{
		"email": email,
		"id":    userID,
		"role":  role,
		"exp":   time.Now().Add(AccessTokenValidity).Unix(),
	}
	accessToken, err := generateToken(accessClaims, secret)
	if err != nil {
		return "", "", err
	}

	refreshClaims := jwt.MapClaims{
		"email": email,
		"id":    userID,
		"sub":   1,
		"exp":   time.Now().Add(RefreshTokenValidity).Unix(),
	}
	refreshToken, err := generateToken(refreshClaims, secret)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func generateToken(claims jwt.MapClaims, secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is empty")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAndGetClaims parses the token and returns its claims if the
// signature and expiry check out.
func ValidateAndGetClaims(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
